package api

// DebuggerState represents the current context of the debugger.
type DebuggerState struct {
	// Running is true if the program is running.
	Running bool `json:"running"`
	// Halted indicates whether the ip register left the program.
	Halted bool `json:"halted"`
	// Loaded is false until a program has been loaded.
	Loaded bool `json:"loaded"`
	// StopReason is the reason the program stopped.
	StopReason string `json:"stopReason"`
	// Line is the line the ip register points at.
	Line int `json:"line"`
	// IPRegister is the register bound to the instruction pointer.
	IPRegister int `json:"ipRegister"`
	// Registers holds the value of every register.
	Registers []Register `json:"registers"`
	// LastStep is the last executed instruction, nil if nothing was executed
	// since the program was loaded.
	LastStep *StepInfo `json:"lastStep,omitempty"`
	// Breakpoints are the breakpoints that stopped the last continue.
	Breakpoints []*Breakpoint `json:"breakPoints,omitempty"`
	// Count is the number of executed instructions.
	Count uint64 `json:"count"`
	// DistinctLines is the number of distinct lines executed.
	DistinctLines int `json:"distinctLines"`

	// Filled by Continue, indicates an error
	Err error `json:"-"`
}

// Register is a register of the machine.
type Register struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	// IP is true for the register bound to the instruction pointer.
	IP bool `json:"ip"`
	// Read and Written describe the last executed instruction.
	Read    bool `json:"read"`
	Written bool `json:"written"`
}

// Instruction is an instruction of the loaded program.
type Instruction struct {
	Line int    `json:"line"`
	Op   string `json:"op"`
	A    int64  `json:"a"`
	B    int64  `json:"b"`
	C    int64  `json:"c"`
	// Text is the instruction as written in the program file.
	Text string `json:"text"`
	// Human is the instruction rendered as an assignment.
	Human string `json:"human"`
	// SourceLine is the 1-based line of the program file holding the
	// instruction.
	SourceLine int `json:"sourceLine,omitempty"`
}

// StepInfo describes an executed instruction.
type StepInfo struct {
	Line        int         `json:"line"`
	Instruction Instruction `json:"instruction"`
	Reads       []string    `json:"reads"`
	Writes      []Write     `json:"writes"`
}

// Write is a register written by a step.
type Write struct {
	Register string `json:"register"`
	Old      int64  `json:"old"`
	New      int64  `json:"new"`
	Unique   bool   `json:"unique"`
}

// Breakpoint is a condition that suspends a continue.
type Breakpoint struct {
	// ID is a unique identifier for the breakpoint.
	ID int `json:"id"`
	// Cond is the condition as typed by the user.
	Cond string `json:"cond"`
	// Expr is the canonical form of the condition.
	Expr    string `json:"expr"`
	Enabled bool   `json:"enabled"`
	// number of times the breakpoint stopped execution
	HitCount uint64 `json:"hitCount"`
	// Unique describes the registers used by unique terms of the condition.
	Unique []UniqueInfo `json:"unique,omitempty"`
}

// UniqueInfo describes the observation history of a register.
type UniqueInfo struct {
	Register string `json:"register"`
	// Seen is the number of distinct values observed.
	Seen int `json:"seen"`
	// Last is the most recent new value.
	Last   int64   `json:"last"`
	Values []int64 `json:"values,omitempty"`
}

// Program is the loaded program.
type Program struct {
	Path         string        `json:"path"`
	IPRegister   int           `json:"ipRegister"`
	Instructions []Instruction `json:"instructions"`
}

// DebuggerCommand is a command which changes the debugger's execution state.
type DebuggerCommand struct {
	// Name is the command to run.
	Name string `json:"name"`
}

const (
	// Continue resumes process execution.
	Continue = "continue"
	// Step executes a single instruction.
	Step = "step"
	// Halt suspends the process.
	Halt = "halt"
)

// GetVersionIn is the argument of the GetVersion call.
type GetVersionIn struct {
}

// GetVersionOut is the result of the GetVersion call.
type GetVersionOut struct {
	ElfdbVersion string
	APIVersion   int
}
