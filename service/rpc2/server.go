package rpc2

import (
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
	"github.com/go-delve/elfdb/service/debugger"
)

type RPCServer struct {
	// config is all the information necessary to start the debugger and server.
	config *service.Config
	// debugger is a debugger service.
	debugger *debugger.Debugger
}

func NewServer(config *service.Config, debugger *debugger.Debugger) *RPCServer {
	return &RPCServer{config, debugger}
}

type DetachIn struct {
}

type DetachOut struct {
}

// Detach stops the debugger, a running continue is halted first.
func (s *RPCServer) Detach(arg DetachIn, out *DetachOut) error {
	if s.debugger.IsRunning() {
		s.debugger.Command(&api.DebuggerCommand{Name: api.Halt})
	}
	return nil
}

type RestartIn struct {
}

type RestartOut struct {
	State api.DebuggerState
}

// Restart resets the program to its initial state. Breakpoints are kept
// and their hit counts cleared.
func (s *RPCServer) Restart(arg RestartIn, out *RestartOut) error {
	st, err := s.debugger.Reset()
	if err != nil {
		return err
	}
	out.State = *st
	return nil
}

type LoadIn struct {
	Path string
}

type LoadOut struct {
	State api.DebuggerState
}

// Load replaces the program with the one at arg.Path.
func (s *RPCServer) Load(arg LoadIn, out *LoadOut) error {
	st, err := s.debugger.Load(arg.Path)
	if err != nil {
		return err
	}
	out.State = *st
	return nil
}

type StateIn struct {
	// If NonBlocking is true State will return immediately even if the target process is running.
	NonBlocking bool
}

type StateOut struct {
	State *api.DebuggerState
}

// State returns the current debugger state.
func (s *RPCServer) State(arg StateIn, out *StateOut) error {
	st, err := s.debugger.State(arg.NonBlocking)
	if err != nil {
		return err
	}
	out.State = st
	return nil
}

type CommandOut struct {
	State api.DebuggerState
}

// Command interrupts, continues and steps through the program.
func (s *RPCServer) Command(command api.DebuggerCommand, cb service.RPCCallback) {
	close(cb.SetupDoneChan())
	st, err := s.debugger.Command(&command)
	if err != nil {
		cb.Return(nil, err)
		return
	}
	var out CommandOut
	out.State = *st
	cb.Return(out, nil)
}

type GetBreakpointIn struct {
	Id int
}

type GetBreakpointOut struct {
	Breakpoint api.Breakpoint
}

// GetBreakpoint gets a breakpoint by ID. The history of the registers used
// by unique terms of its condition is included.
func (s *RPCServer) GetBreakpoint(arg GetBreakpointIn, out *GetBreakpointOut) error {
	bp, err := s.debugger.FindBreakpoint(arg.Id)
	if err != nil {
		return err
	}
	out.Breakpoint = *bp
	return nil
}

type CreateBreakpointIn struct {
	Cond string
}

type CreateBreakpointOut struct {
	Breakpoint api.Breakpoint
}

// CreateBreakpoint creates a new breakpoint. The condition is an
// expression of the breakpoint language, for example:
//
//	all(line(8), gt(a, 5))
func (s *RPCServer) CreateBreakpoint(arg CreateBreakpointIn, out *CreateBreakpointOut) error {
	createdbp, err := s.debugger.CreateBreakpoint(arg.Cond)
	if err != nil {
		return err
	}
	out.Breakpoint = *createdbp
	return nil
}

type ListBreakpointsIn struct {
}

type ListBreakpointsOut struct {
	Breakpoints []*api.Breakpoint
}

// ListBreakpoints gets all breakpoints.
func (s *RPCServer) ListBreakpoints(arg ListBreakpointsIn, out *ListBreakpointsOut) error {
	out.Breakpoints = s.debugger.Breakpoints()
	return nil
}

type ClearBreakpointIn struct {
	// Id of the breakpoint to remove, if Last is set the most recently
	// created breakpoint is removed instead.
	Id   int
	Last bool
}

type ClearBreakpointOut struct {
	Breakpoint *api.Breakpoint
}

// ClearBreakpoint deletes a breakpoint by Id.
func (s *RPCServer) ClearBreakpoint(arg ClearBreakpointIn, out *ClearBreakpointOut) error {
	var bp *api.Breakpoint
	var err error
	if arg.Last {
		bp, err = s.debugger.ClearLastBreakpoint()
	} else {
		bp, err = s.debugger.ClearBreakpoint(arg.Id)
	}
	if err != nil {
		return err
	}
	out.Breakpoint = bp
	return nil
}

type ToggleBreakpointIn struct {
	Id int
}

type ToggleBreakpointOut struct {
	Breakpoint *api.Breakpoint
}

// ToggleBreakpoint toggles on or off a breakpoint by Id.
func (s *RPCServer) ToggleBreakpoint(arg ToggleBreakpointIn, out *ToggleBreakpointOut) error {
	bp, err := s.debugger.ToggleBreakpoint(arg.Id)
	if err != nil {
		return err
	}
	out.Breakpoint = bp
	return nil
}

type SetRegisterIn struct {
	Register string
	Value    int64
}

type SetRegisterOut struct {
}

// SetRegister writes a register of the paused program.
func (s *RPCServer) SetRegister(arg SetRegisterIn, out *SetRegisterOut) error {
	return s.debugger.SetRegister(arg.Register, arg.Value)
}

type RegisterHistoryIn struct {
	Register string
}

type RegisterHistoryOut struct {
	History api.UniqueInfo
}

// RegisterHistory returns the distinct values observed in a register.
func (s *RPCServer) RegisterHistory(arg RegisterHistoryIn, out *RegisterHistoryOut) error {
	h, err := s.debugger.History(arg.Register)
	if err != nil {
		return err
	}
	out.History = *h
	return nil
}

type ListInstructionsIn struct {
}

type ListInstructionsOut struct {
	Program api.Program
}

// ListInstructions returns the instructions of the loaded program.
func (s *RPCServer) ListInstructions(arg ListInstructionsIn, out *ListInstructionsOut) error {
	p, err := s.debugger.Program()
	if err != nil {
		return err
	}
	out.Program = *p
	return nil
}

type EvalIn struct {
	Cond string
}

type EvalOut struct {
	Value bool
}

// Eval evaluates a breakpoint condition against the last executed
// instruction.
func (s *RPCServer) Eval(arg EvalIn, out *EvalOut) error {
	v, err := s.debugger.EvalCondition(arg.Cond)
	if err != nil {
		return err
	}
	out.Value = v
	return nil
}

type IsMulticlientIn struct {
}

type IsMulticlientOut struct {
	// IsMulticlient returns true if the headless instance was started with --accept-multiclient
	IsMulticlient bool
}

func (s *RPCServer) IsMulticlient(arg IsMulticlientIn, out *IsMulticlientOut) error {
	*out = IsMulticlientOut{
		IsMulticlient: s.config.AcceptMulti,
	}
	return nil
}
