package service

import (
	"github.com/go-delve/elfdb/service/api"
)

// Client represents a debugger service client. All client methods are
// synchronous.
type Client interface {
	// Detach stops the debugger service.
	Detach() error

	// Restart resets the program to its initial state, breakpoints are kept.
	Restart() (*api.DebuggerState, error)
	// Load replaces the program with the one at path.
	Load(path string) (*api.DebuggerState, error)

	// GetState returns the current debugger state.
	GetState() (*api.DebuggerState, error)
	// GetStateNonBlocking returns the current debugger state, returning immediately if the target is already running.
	GetStateNonBlocking() (*api.DebuggerState, error)

	// Continue resumes program execution.
	Continue() <-chan *api.DebuggerState
	// Step executes a single instruction.
	Step() (*api.DebuggerState, error)
	// Halt suspends a running continue.
	Halt() (*api.DebuggerState, error)

	// GetBreakpoint gets a breakpoint by ID, including the history of the
	// registers used by its unique terms.
	GetBreakpoint(id int) (*api.Breakpoint, error)
	// CreateBreakpoint creates a new breakpoint from a condition.
	CreateBreakpoint(cond string) (*api.Breakpoint, error)
	// ListBreakpoints gets all breakpoints.
	ListBreakpoints() ([]*api.Breakpoint, error)
	// ClearBreakpoint deletes a breakpoint by ID.
	ClearBreakpoint(id int) (*api.Breakpoint, error)
	// ClearLastBreakpoint deletes the most recently created breakpoint.
	ClearLastBreakpoint() (*api.Breakpoint, error)
	// ToggleBreakpoint enables or disables a breakpoint.
	ToggleBreakpoint(id int) (*api.Breakpoint, error)

	// SetRegister writes a register. The name "ip" refers to the register
	// bound to the instruction pointer.
	SetRegister(name string, value int64) error
	// RegisterHistory returns the values observed in a register.
	RegisterHistory(name string) (*api.UniqueInfo, error)
	// ListInstructions returns the loaded program.
	ListInstructions() (*api.Program, error)
	// EvalCondition evaluates a breakpoint condition against the last
	// executed instruction.
	EvalCondition(cond string) (bool, error)

	// GetVersion returns the version of the debugger and of the API.
	GetVersion() (*api.GetVersionOut, error)

	// IsMulticlient returns true if the headless instance is multiclient.
	IsMulticlient() bool

	// CallAPI calls an API method of the server by name, args and reply
	// are the method's In and Out structs.
	CallAPI(method string, args, reply interface{}) error

	// Disconnect closes the connection to the server without sending a Detach request first.
	// If cont is true a continue command will be sent instead.
	Disconnect(cont bool) error
}
