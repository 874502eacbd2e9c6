package debugger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-delve/elfdb/pkg/elfcode"
	"github.com/go-delve/elfdb/pkg/logflags"
	"github.com/go-delve/elfdb/pkg/proc"
	"github.com/go-delve/elfdb/service/api"
)

// Debugger service.
//
// Debugger provides a higher level of
// abstraction over proc.Target.
// It handles converting from internal types to
// the types expected by clients and serializes
// access to the target.
type Debugger struct {
	config *Config

	targetMutex sync.Mutex
	target      *proc.Target
	log         logflags.Logger

	running      bool
	runningMutex sync.Mutex
}

// Config provides the configuration to start a Debugger.
type Config struct {
	// Program is the path of the program to load, may be empty.
	Program string
}

// New creates a new Debugger. If config.Program is set the program is
// loaded.
func New(config *Config) (*Debugger, error) {
	if config == nil {
		config = &Config{}
	}
	d := &Debugger{
		config: config,
		target: proc.NewTarget(),
		log:    logflags.DebuggerLogger(),
	}
	if config.Program != "" {
		d.log.Infof("loading program %s", config.Program)
		if err := d.target.Load(config.Program); err != nil {
			return nil, fmt.Errorf("could not load program: %v", err)
		}
	}
	return d, nil
}

// Load replaces the program with the one at path.
func (d *Debugger) Load(path string) (*api.DebuggerState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	d.log.Infof("loading program %s", path)
	if err := d.target.Load(path); err != nil {
		return nil, fmt.Errorf("could not load program: %v", err)
	}
	d.config.Program = path
	return d.state(), nil
}

// SetProgram replaces the program with prog.
func (d *Debugger) SetProgram(path string, prog *elfcode.Program) *api.DebuggerState {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	d.target.Path = path
	d.target.SetProgram(prog)
	return d.state()
}

// Reset restarts the program.
func (d *Debugger) Reset() (*api.DebuggerState, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	if d.target.Program() == nil {
		return nil, proc.ErrNoProgram
	}
	d.log.Debug("resetting")
	d.target.Reset()
	return d.state(), nil
}

// ProgramPath returns the path of the loaded program.
func (d *Debugger) ProgramPath() string {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return d.target.Path
}

// Program returns the loaded program.
func (d *Debugger) Program() (*api.Program, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	p := d.target.Program()
	if p == nil {
		return nil, proc.ErrNoProgram
	}
	return api.ConvertProgram(d.target.Path, p), nil
}

// State returns the current state of the debugger.
func (d *Debugger) State(nowait bool) (*api.DebuggerState, error) {
	if d.isRunning() && nowait {
		return &api.DebuggerState{Running: true}, nil
	}

	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return d.state(), nil
}

func (d *Debugger) state() *api.DebuggerState {
	t := d.target
	state := &api.DebuggerState{
		Running:       t.State() == proc.Running,
		Halted:        t.State() == proc.Halted,
		StopReason:    t.StopReason.String(),
		Count:         t.Count(),
		DistinctLines: t.DistinctLines(),
	}
	p := t.Program()
	if p == nil {
		state.IPRegister = -1
		state.Registers = api.ConvertRegisters(t.Registers(), -1, nil)
		return state
	}
	state.Loaded = true
	state.Line = t.Line()
	state.IPRegister = p.IP
	state.Registers = api.ConvertRegisters(t.Registers(), p.IP, t.LastStep())
	state.LastStep = api.ConvertStep(t.LastStep(), p.IP)
	return state
}

func (d *Debugger) setRunning(running bool) {
	d.runningMutex.Lock()
	d.running = running
	d.runningMutex.Unlock()
}

func (d *Debugger) isRunning() bool {
	d.runningMutex.Lock()
	defer d.runningMutex.Unlock()
	return d.running
}

// IsRunning returns true if a continue is in progress.
func (d *Debugger) IsRunning() bool {
	return d.isRunning()
}

// Command handles commands which control the debugger lifecycle
func (d *Debugger) Command(command *api.DebuggerCommand) (*api.DebuggerState, error) {
	var err error

	if command.Name == api.Halt {
		// RequestManualStop only sets a flag, it's safe to call it while
		// another goroutine holds the target mutex.
		d.log.Debug("halting")
		err = d.target.RequestManualStop()
		if err != nil {
			return nil, err
		}
		return &api.DebuggerState{Running: d.isRunning()}, nil
	}

	if command.Name == api.Continue {
		// a halt arriving before Continue takes the target mutex must
		// still stop it
		d.target.PrepareContinue()
	}
	d.setRunning(true)
	defer d.setRunning(false)

	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()

	var fired []*proc.Breakpoint

	switch command.Name {
	case api.Continue:
		d.log.Debug("continuing")
		var info *proc.StopInfo
		info, err = d.target.Continue()
		if info != nil {
			fired = info.Breakpoints
		}
	case api.Step:
		d.log.Debug("stepping")
		_, err = d.target.Step()
	default:
		err = fmt.Errorf("unknown command %q", command.Name)
	}

	if err != nil {
		if errors.Is(err, proc.ErrProcessHalted) {
			state := d.state()
			state.Err = err
			return state, err
		}
		return nil, err
	}
	state := d.state()
	state.Breakpoints = api.ConvertBreakpoints(fired)
	return state, nil
}

// CreateBreakpoint parses cond and adds a breakpoint.
func (d *Debugger) CreateBreakpoint(cond string) (*api.Breakpoint, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	bp, err := d.target.SetBreakpoint(cond)
	if err != nil {
		return nil, err
	}
	d.log.Infof("created breakpoint: %s", bp)
	return api.ConvertBreakpoint(bp, nil), nil
}

// ClearBreakpoint removes the breakpoint with the given id.
func (d *Debugger) ClearBreakpoint(id int) (*api.Breakpoint, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	bp, err := d.target.ClearBreakpoint(id)
	if err != nil {
		return nil, err
	}
	d.log.Infof("cleared breakpoint: %s", bp)
	return api.ConvertBreakpoint(bp, nil), nil
}

// ClearLastBreakpoint removes the most recently created breakpoint.
func (d *Debugger) ClearLastBreakpoint() (*api.Breakpoint, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	bp, err := d.target.ClearLastBreakpoint()
	if err != nil {
		return nil, err
	}
	d.log.Infof("cleared breakpoint: %s", bp)
	return api.ConvertBreakpoint(bp, nil), nil
}

// ClearAllBreakpoints removes every breakpoint.
func (d *Debugger) ClearAllBreakpoints() []*api.Breakpoint {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	var r []*api.Breakpoint
	for _, bp := range d.target.Breakpoints() {
		if _, err := d.target.ClearBreakpoint(bp.ID); err == nil {
			r = append(r, api.ConvertBreakpoint(bp, nil))
		}
	}
	return r
}

// ToggleBreakpoint enables or disables a breakpoint.
func (d *Debugger) ToggleBreakpoint(id int) (*api.Breakpoint, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	bp, err := d.target.ToggleBreakpoint(id)
	if err != nil {
		return nil, err
	}
	return api.ConvertBreakpoint(bp, nil), nil
}

// Breakpoints returns the list of current breakpoints.
func (d *Debugger) Breakpoints() []*api.Breakpoint {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return api.ConvertBreakpoints(d.target.Breakpoints())
}

// FindBreakpoint returns the breakpoint with the given id, including the
// observation history of the registers its unique terms use.
func (d *Debugger) FindBreakpoint(id int) (*api.Breakpoint, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	bp, ok := d.target.FindBreakpoint(id)
	if !ok {
		return nil, proc.NoBreakpointError{ID: id}
	}
	return api.ConvertBreakpoint(bp, d.target.Tracker()), nil
}

// SetRegister writes value to the register called name. The label "ip"
// refers to the register bound to the instruction pointer.
func (d *Debugger) SetRegister(name string, value int64) error {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	reg, err := d.registerIndex(name)
	if err != nil {
		return err
	}
	return d.target.SetRegister(reg, value)
}

// History returns the values observed in the register called name.
func (d *Debugger) History(name string) (*api.UniqueInfo, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	reg, err := d.registerIndex(name)
	if err != nil {
		return nil, err
	}
	h := d.target.Tracker().History(reg)
	last, _ := h.Last()
	return &api.UniqueInfo{Register: elfcode.RegisterName(reg), Seen: h.Len(), Last: last, Values: h.Values()}, nil
}

func (d *Debugger) registerIndex(name string) (int, error) {
	if reg, ok := elfcode.RegisterIndex(name); ok {
		return reg, nil
	}
	if p := d.target.Program(); name == "ip" && p != nil {
		return p.IP, nil
	}
	return -1, fmt.Errorf("unknown register %q", name)
}

// EvalCondition evaluates a breakpoint condition against the last executed
// instruction.
func (d *Debugger) EvalCondition(cond string) (bool, error) {
	d.targetMutex.Lock()
	defer d.targetMutex.Unlock()
	return d.target.EvalCondition(cond)
}
