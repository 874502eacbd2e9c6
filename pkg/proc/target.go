package proc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-delve/elfdb/pkg/breakexpr"
	"github.com/go-delve/elfdb/pkg/elfcode"
	"github.com/go-delve/elfdb/pkg/logflags"
)

var (
	// ErrProcessHalted is returned by Step and Continue after the program
	// has halted.
	ErrProcessHalted = errors.New("program has halted, reset or load a program to restart it")
	// ErrNoProgram is returned when an operation needs a loaded program.
	ErrNoProgram = errors.New("no program loaded")
	// ErrProcessRunning is returned by operations that are only legal while
	// the target is paused.
	ErrProcessRunning = errors.New("program is running")
)

// State is the execution state of a Target.
type State uint8

const (
	Paused State = iota
	Running
	Halted
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// StopReason describes the reason why the target is stopped.
type StopReason uint8

const (
	StopUnknown    StopReason = iota
	StopLaunched              // The program was just loaded or reset
	StopBreakpoint            // One or more breakpoints fired
	StopManual                // A manual stop was requested
	StopStepped               // A single step completed
	StopHalted                // The ip register left the program
)

// String maps StopReason to string representation.
func (sr StopReason) String() string {
	switch sr {
	case StopUnknown:
		return "unknown"
	case StopLaunched:
		return "launched"
	case StopBreakpoint:
		return "breakpoint"
	case StopManual:
		return "manual"
	case StopStepped:
		return "stepped"
	case StopHalted:
		return "halted"
	default:
		return ""
	}
}

// StopInfo describes how Continue returned.
type StopInfo struct {
	Reason StopReason
	// Breakpoints are the breakpoints that fired on the last step, in
	// creation order.
	Breakpoints []*Breakpoint
	// Step is the last executed instruction, nil if Continue stopped before
	// executing anything.
	Step *StepContext
}

// Target is the execution controller of an Elfcode program: it owns the
// registers, the observation history and the breakpoints.
//
// Target is not safe for concurrent use, except for PrepareContinue,
// RequestManualStop and State which may be called while another goroutine
// is in Continue.
type Target struct {
	Path       string
	StopReason StopReason

	prog    *elfcode.Program
	initial elfcode.Registers
	regs    elfcode.Registers
	tracker *Tracker
	last    *StepContext

	breakpoints BreakpointMap

	count uint64
	lines map[int]struct{}

	stopMu              sync.Mutex
	state               State
	manualStopRequested bool
	// continuePending is set between PrepareContinue and the start of
	// Continue, stop requests made in between are kept.
	continuePending bool

	log logflags.Logger
}

// NewTarget returns a paused target with no program loaded.
func NewTarget() *Target {
	return &Target{
		tracker: NewTracker(),
		lines:   make(map[int]struct{}),
		log:     logflags.ProcLogger(),
	}
}

// Launch returns a target for the program at path.
func Launch(path string) (*Target, error) {
	t := NewTarget()
	if err := t.Load(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Load replaces the program with the one at path and restarts it from
// zeroed registers. Breakpoints are kept.
func (t *Target) Load(path string) error {
	prog, err := elfcode.LoadProgram(path)
	if err != nil {
		return err
	}
	t.Path = path
	t.SetProgram(prog)
	return nil
}

// SetProgram replaces the program and restarts it.
func (t *Target) SetProgram(prog *elfcode.Program) {
	t.prog = prog
	t.initial = elfcode.Registers{}
	t.Reset()
}

// Reset restarts the program: registers, history and counters return to
// their initial state and the target is paused. Breakpoints are kept with
// their hit counts cleared.
func (t *Target) Reset() {
	t.regs = t.initial
	t.tracker.Reset()
	t.last = nil
	t.count = 0
	t.lines = make(map[int]struct{})
	t.breakpoints.resetHitCounts()
	t.StopReason = StopLaunched
	t.finishRun(Paused)
	t.log.Debugf("reset program %q", t.Path)
}

// Program returns the loaded program, or nil.
func (t *Target) Program() *elfcode.Program {
	return t.prog
}

// Registers returns a copy of the registers.
func (t *Target) Registers() elfcode.Registers {
	return t.regs
}

// Tracker returns the observation history.
func (t *Target) Tracker() *Tracker {
	return t.tracker
}

// LastStep returns the context of the last executed instruction, or nil.
func (t *Target) LastStep() *StepContext {
	return t.last
}

// Line returns the line the ip register points at, the next line to be
// executed.
func (t *Target) Line() int {
	if t.prog == nil {
		return 0
	}
	return int(t.regs[t.prog.IP])
}

// Count returns the number of executed instructions.
func (t *Target) Count() uint64 {
	return t.count
}

// DistinctLines returns the number of distinct lines executed.
func (t *Target) DistinctLines() int {
	return len(t.lines)
}

// State returns the execution state.
func (t *Target) State() State {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	return t.state
}

func (t *Target) setState(s State) {
	t.stopMu.Lock()
	t.state = s
	t.stopMu.Unlock()
}

// finishRun sets the state at the end of a run and drops any stop request
// that arrived too late to be seen by it.
func (t *Target) finishRun(s State) {
	t.stopMu.Lock()
	t.state = s
	t.manualStopRequested = false
	t.continuePending = false
	t.stopMu.Unlock()
}

// PrepareContinue announces a call to Continue. A stop requested after
// PrepareContinue makes that Continue stop before the first instruction.
func (t *Target) PrepareContinue() {
	t.stopMu.Lock()
	if t.state == Paused {
		t.continuePending = true
	}
	t.stopMu.Unlock()
}

// RequestManualStop asks a running Continue to stop at the next
// instruction boundary. It may be called from any goroutine. Requests made
// while paused are ignored unless a Continue was announced with
// PrepareContinue.
func (t *Target) RequestManualStop() error {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	switch t.state {
	case Halted:
		return ErrProcessHalted
	case Running:
		t.manualStopRequested = true
	case Paused:
		if t.continuePending {
			t.manualStopRequested = true
		}
	}
	return nil
}

// CheckAndClearManualStopRequest returns true the first time it is called
// after RequestManualStop.
func (t *Target) CheckAndClearManualStopRequest() bool {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	msr := t.manualStopRequested
	t.manualStopRequested = false
	return msr
}

func (t *Target) valid() error {
	if t.prog == nil {
		return ErrNoProgram
	}
	switch t.State() {
	case Halted:
		return ErrProcessHalted
	case Running:
		return ErrProcessRunning
	}
	return nil
}

// halted returns true if the ip register points outside the program.
func (t *Target) halted() bool {
	_, _, ok := t.prog.Fetch(&t.regs)
	return !ok
}

// Step executes exactly one instruction. Breakpoints are not evaluated.
func (t *Target) Step() (*StepContext, error) {
	if err := t.valid(); err != nil {
		return nil, err
	}
	if t.halted() {
		t.setState(Halted)
		t.StopReason = StopHalted
		return nil, ErrProcessHalted
	}
	s, err := t.step()
	if err != nil {
		return nil, err
	}
	t.StopReason = StopStepped
	if t.halted() {
		t.setState(Halted)
		t.StopReason = StopHalted
	}
	return s, nil
}

// step executes one instruction and records it. Nothing is modified if
// the instruction fails.
func (t *Target) step() (*StepContext, error) {
	before := t.regs
	after, line, err := t.prog.Exec(before)
	if err != nil {
		return nil, err
	}
	s := newStepContext(line, t.prog.Instructions[line], before, after, t.prog.IP, t.tracker)
	t.regs = after
	t.last = s
	t.count++
	t.lines[line] = struct{}{}
	return s, nil
}

// Continue runs the program until a breakpoint fires, the program halts or
// a manual stop is requested.
func (t *Target) Continue() (*StopInfo, error) {
	if err := t.valid(); err != nil {
		t.stopMu.Lock()
		t.continuePending = false
		t.stopMu.Unlock()
		return nil, err
	}
	t.stopMu.Lock()
	if !t.continuePending {
		t.manualStopRequested = false
	}
	t.continuePending = false
	t.state = Running
	t.stopMu.Unlock()
	t.log.Debugf("continue from line %d", t.Line())

	info := &StopInfo{}
	stop := func(state State, reason StopReason) (*StopInfo, error) {
		t.finishRun(state)
		t.StopReason = reason
		info.Reason = reason
		t.log.Debugf("stopped at line %d: %s", t.Line(), reason)
		return info, nil
	}

	for {
		if t.CheckAndClearManualStopRequest() {
			return stop(Paused, StopManual)
		}
		if t.halted() {
			return stop(Halted, StopHalted)
		}
		s, err := t.step()
		if err != nil {
			t.finishRun(Paused)
			return nil, err
		}
		info.Step = s
		fired, err := t.breakpoints.evaluate(s)
		if err != nil {
			t.finishRun(Paused)
			return nil, err
		}
		if len(fired) > 0 {
			for _, bp := range fired {
				bp.HitCount++
			}
			info.Breakpoints = fired
			if t.halted() {
				return stop(Halted, StopBreakpoint)
			}
			return stop(Paused, StopBreakpoint)
		}
	}
}

// SetRegister writes v to reg while the target is paused and records it
// in the observation history.
func (t *Target) SetRegister(reg int, v int64) error {
	if err := t.valid(); err != nil {
		return err
	}
	if err := t.regs.Set(reg, v); err != nil {
		return err
	}
	t.tracker.Record(reg, v)
	t.log.Debugf("set %s=%d", elfcode.RegisterName(reg), v)
	return nil
}

func (t *Target) exprOptions() breakexpr.Options {
	if t.prog == nil {
		return breakexpr.Options{IPRegister: -1}
	}
	return breakexpr.Options{IPRegister: t.prog.IP}
}

// SetBreakpoint parses text and adds a new breakpoint.
func (t *Target) SetBreakpoint(text string) (*Breakpoint, error) {
	bp, err := t.breakpoints.Add(text, t.exprOptions())
	if err != nil {
		return nil, err
	}
	t.log.Debugf("created breakpoint %d: %s", bp.ID, bp.Expr)
	return bp, nil
}

// ClearBreakpoint removes the breakpoint with the given id.
func (t *Target) ClearBreakpoint(id int) (*Breakpoint, error) {
	bp, err := t.breakpoints.Remove(id)
	if err != nil {
		return nil, err
	}
	t.log.Debugf("cleared breakpoint %d", id)
	return bp, nil
}

// ClearLastBreakpoint removes the most recently created breakpoint.
func (t *Target) ClearLastBreakpoint() (*Breakpoint, error) {
	bp, ok := t.breakpoints.Last()
	if !ok {
		return nil, errors.New("no breakpoints")
	}
	return t.ClearBreakpoint(bp.ID)
}

// ToggleBreakpoint flips the enabled flag of a breakpoint.
func (t *Target) ToggleBreakpoint(id int) (*Breakpoint, error) {
	bp, ok := t.breakpoints.Find(id)
	if !ok {
		return nil, NoBreakpointError{ID: id}
	}
	bp.Enabled = !bp.Enabled
	return bp, nil
}

// FindBreakpoint returns the breakpoint with the given id.
func (t *Target) FindBreakpoint(id int) (*Breakpoint, bool) {
	return t.breakpoints.Find(id)
}

// Breakpoints returns all breakpoints in creation order.
func (t *Target) Breakpoints() []*Breakpoint {
	return t.breakpoints.List()
}

// ErrNoStep is returned by EvalCondition before the first instruction of
// the program has executed.
var ErrNoStep = errors.New("no instruction executed yet")

// EvalCondition evaluates a breakpoint condition against the last executed
// instruction without creating a breakpoint. The observation history is
// not modified.
func (t *Target) EvalCondition(text string) (bool, error) {
	expr, err := breakexpr.ParseWithOptions(text, t.exprOptions())
	if err != nil {
		return false, err
	}
	if t.last == nil {
		return false, ErrNoStep
	}
	return breakexpr.Eval(expr, t.last)
}
