// Package dap implements VSCode's Debug Adaptor Protocol (DAP).
// This allows elfdb to communicate with frontends using DAP
// without a separate adaptor. The frontend will run the debugger
// (which now doubles as an adaptor) in server mode listening on
// a port and communicating over TCP.
// Requests are processed one at a time, except for continue, next and
// stepIn which run on their own goroutine so that a pause request can
// interrupt them.
// For DAP details see https://microsoft.github.io/debug-adapter-protocol.
package dap

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-delve/elfdb/pkg/logflags"
	"github.com/go-delve/elfdb/pkg/proc"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
	"github.com/go-delve/elfdb/service/debugger"
	"github.com/google/go-dap"
)

// threadID is the id of the only thread of an Elfcode program.
const threadID = 1

const haltRetryInterval = 10 * time.Millisecond

// Server implements a DAP server that can accept a single client for
// a single debug session. It does not support restarting.
// The server operates via three goroutines:
// (1) Main goroutine where the server is created via NewServer(),
// started via Run() and stopped via Stop().
// (2) Run goroutine started from Run() that accepts a client connection,
// reads, decodes and processes each request, issuing commands to the
// underlying debugger and sending back events and responses.
// (3) Execution goroutine started for every continue, next or stepIn
// request, which sends a stopped or terminated event when the program
// stops.
type Server struct {
	// config is all the information necessary to start the debugger and server.
	config *service.Config
	// listener is used to accept the client connection.
	listener net.Listener
	// conn is the accepted client connection.
	conn net.Conn
	// stopChan is closed when the server is Stop()-ed. This can be used to signal
	// to goroutines run by the server that it's time to quit.
	stopChan chan struct{}
	// reader is used to read requests from the connection.
	reader *bufio.Reader
	// sendingMu synchronizes writes to conn from the run and execution
	// goroutines.
	sendingMu sync.Mutex
	// debugger is the underlying debugger service.
	debugger *debugger.Debugger
	// log is used for structured logging.
	log logflags.Logger
	// variableHandles maps register snapshots and histories to references.
	variableHandles *handlesMap
	// args tracks special settings for handling debug session requests.
	args LaunchConfig
	// sourceBreakpoints are the ids of the breakpoints created by the last
	// setBreakpoints request.
	sourceBreakpoints []int

	runningMu sync.Mutex
	// running is set before an execution goroutine starts and cleared
	// after it sent its stop event.
	running bool
	// execDone is closed when the last execution goroutine returns.
	execDone chan struct{}
}

// NewServer creates a new DAP Server. It takes an opened Listener
// via config and assumes its ownership. config.DisconnectChan has to be set;
// it will be closed by the server when the client disconnects or requests
// shutdown. Once DisconnectChan is closed, Server.Stop() must be called.
func NewServer(config *service.Config) *Server {
	logger := logflags.DAPLogger()
	logflags.WriteDAPListeningMessage(config.Listener.Addr().String())
	logger.Debug("DAP server pid = ", os.Getpid())
	return &Server{
		config:          config,
		listener:        config.Listener,
		stopChan:        make(chan struct{}),
		log:             logger,
		variableHandles: newHandlesMap(),
	}
}

// Stop stops the DAP debugger service, closes the listener and the client
// connection. A running program is paused. This method mustn't be called
// more than once.
func (s *Server) Stop() {
	s.listener.Close()
	close(s.stopChan)
	if s.conn != nil {
		// Unless Stop() was called after serveDAPCodec()
		// returned, this will result in closed connection error
		// on next read, breaking out of the read loop and
		// allowing the run goroutine to exit.
		s.conn.Close()
	}
	s.haltAndWait()
}

// haltAndWait pauses a running program and waits for its execution
// goroutine to return.
func (s *Server) haltAndWait() {
	if done := s.runningDone(); done != nil {
		s.requestHalt(done)
	}
}

// runningDone returns the channel closed by the execution goroutine, nil if
// the program is not running.
func (s *Server) runningDone() <-chan struct{} {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if !s.running {
		return nil
	}
	return s.execDone
}

// requestHalt asks the debugger to pause until done is closed. A request
// made before the program started running is lost, so it is repeated.
func (s *Server) requestHalt(done <-chan struct{}) {
	for {
		if s.debugger.IsRunning() {
			if _, err := s.debugger.Command(&api.DebuggerCommand{Name: api.Halt}); err != nil {
				s.log.Debug(err)
			}
		}
		select {
		case <-done:
			return
		case <-time.After(haltRetryInterval):
		}
	}
}

// signalDisconnect closes config.DisconnectChan if not nil, which
// signals that the client disconnected or there was a client
// connection failure. Since the server currently services only one
// client, this can be used as a signal to the entire server via
// Stop(). The function safeguards against closing the channel more
// than once and can be called multiple times. It is only called from
// the run goroutine.
func (s *Server) signalDisconnect() {
	if s.config.DisconnectChan != nil {
		close(s.config.DisconnectChan)
		s.config.DisconnectChan = nil
	}
}

// Run launches a new goroutine where it accepts a client connection
// and starts processing requests from it. Use Stop() to close connection.
// The server does not support multiple clients, serially or in parallel.
// The server should be restarted for every new debug session.
// The debugger won't be started until launch request is received.
func (s *Server) Run() {
	go func() {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Errorf("Error accepting client connection: %s\n", err)
			}
			s.signalDisconnect()
			return
		}
		s.conn = conn
		s.serveDAPCodec()
	}()
}

// serveDAPCodec reads and decodes requests from the client
// until it encounters an error or EOF, when it sends
// the disconnect signal and returns.
func (s *Server) serveDAPCodec() {
	defer s.signalDisconnect()
	s.reader = bufio.NewReader(s.conn)
	for {
		request, err := dap.ReadProtocolMessage(s.reader)
		if err != nil {
			stopRequested := false
			select {
			case <-s.stopChan:
				stopRequested = true
			default:
			}
			if err != io.EOF && !stopRequested {
				s.log.Error("DAP error: ", err)
			}
			return
		}
		s.handleRequest(request)
	}
}

func (s *Server) handleRequest(request dap.Message) {
	defer func() {
		// In case a handler panics, we catch the panic and send an error response
		// back to the client.
		if ierr := recover(); ierr != nil {
			s.sendInternalErrorResponse(request.GetSeq(), fmt.Sprintf("%v", ierr))
		}
	}()

	jsonmsg, _ := json.Marshal(request)
	s.log.Debug("[<- from client]", string(jsonmsg))

	switch request := request.(type) {
	case *dap.InitializeRequest:
		s.onInitializeRequest(request)
	case *dap.LaunchRequest:
		s.onLaunchRequest(request)
	case *dap.DisconnectRequest:
		s.onDisconnectRequest(request)
	case *dap.PauseRequest:
		s.onPauseRequest(request)
	case *dap.ThreadsRequest:
		s.onThreadsRequest(request)
	case *dap.AttachRequest,
		*dap.TerminateRequest,
		*dap.RestartRequest,
		*dap.SetFunctionBreakpointsRequest,
		*dap.StepOutRequest,
		*dap.StepBackRequest,
		*dap.ReverseContinueRequest,
		*dap.RestartFrameRequest,
		*dap.GotoRequest,
		*dap.SetExpressionRequest,
		*dap.SourceRequest,
		*dap.TerminateThreadsRequest,
		*dap.StepInTargetsRequest,
		*dap.GotoTargetsRequest,
		*dap.CompletionsRequest,
		*dap.ExceptionInfoRequest,
		*dap.LoadedSourcesRequest,
		*dap.DataBreakpointInfoRequest,
		*dap.SetDataBreakpointsRequest,
		*dap.ReadMemoryRequest,
		*dap.DisassembleRequest,
		*dap.CancelRequest,
		*dap.BreakpointLocationsRequest,
		*dap.ModulesRequest:
		s.sendUnsupportedErrorResponse(request.(dap.RequestMessage).GetRequest())
	case dap.RequestMessage:
		// Every other request touches the target and has to wait until
		// the program stops.
		if s.isRunning() {
			s.sendErrorResponse(*request.GetRequest(), UnsupportedCommand,
				"Unable to process request", "the program is running")
			return
		}
		s.handleStoppedRequest(request)
	default:
		s.sendInternalErrorResponse(request.GetSeq(), fmt.Sprintf("Unable to process %#v\n", request))
	}
}

// handleStoppedRequest dispatches requests that are only valid while the
// program is not running.
func (s *Server) handleStoppedRequest(request dap.Message) {
	switch request := request.(type) {
	case *dap.SetBreakpointsRequest:
		s.onSetBreakpointsRequest(request)
	case *dap.SetExceptionBreakpointsRequest:
		s.send(&dap.SetExceptionBreakpointsResponse{Response: *newResponse(request.Request)})
	case *dap.ConfigurationDoneRequest:
		s.onConfigurationDoneRequest(request)
	case *dap.ContinueRequest:
		s.onContinueRequest(request)
	case *dap.NextRequest:
		s.onStepRequest(request.Request)
	case *dap.StepInRequest:
		s.onStepRequest(request.Request)
	case *dap.StackTraceRequest:
		s.onStackTraceRequest(request)
	case *dap.ScopesRequest:
		s.onScopesRequest(request)
	case *dap.VariablesRequest:
		s.onVariablesRequest(request)
	case *dap.SetVariableRequest:
		s.onSetVariableRequest(request)
	case *dap.EvaluateRequest:
		s.onEvaluateRequest(request)
	default:
		// This is a DAP message that go-dap has a struct for, so
		// decoding succeeded, but this function does not know how
		// to handle.
		s.sendInternalErrorResponse(request.GetSeq(), fmt.Sprintf("Unable to process %#v\n", request))
	}
}

func (s *Server) send(message dap.Message) {
	jsonmsg, _ := json.Marshal(message)
	s.log.Debug("[-> to client]", string(jsonmsg))
	s.sendingMu.Lock()
	defer s.sendingMu.Unlock()
	if err := dap.WriteProtocolMessage(s.conn, message); err != nil {
		s.log.Debug(err)
	}
}

func (s *Server) onInitializeRequest(request *dap.InitializeRequest) {
	response := &dap.InitializeResponse{Response: *newResponse(request.Request)}
	response.Body.SupportsConfigurationDoneRequest = true
	response.Body.SupportsConditionalBreakpoints = true
	response.Body.SupportsSetVariable = true
	response.Body.SupportsEvaluateForHovers = true
	s.send(response)
}

func (s *Server) onLaunchRequest(request *dap.LaunchRequest) {
	if s.debugger != nil {
		s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch",
			"a program is already loaded")
		return
	}
	var args LaunchConfig
	if err := unmarshalLaunchArgs(request.Arguments, &args); err != nil {
		s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch", err.Error())
		return
	}
	if args.Program == "" {
		args.Program = s.config.Program
	}
	if args.Program == "" {
		s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch",
			"The program attribute is missing in debug configuration.")
		return
	}

	dbg, err := debugger.New(&debugger.Config{Program: args.Program})
	if err != nil {
		s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch", err.Error())
		return
	}
	for _, cond := range args.Conditions {
		if _, err := dbg.CreateBreakpoint(cond); err != nil {
			s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch", err.Error())
			return
		}
	}
	s.debugger = dbg
	s.args = args

	// Notify the client that the debugger is ready to start accepting
	// configuration requests for setting breakpoints, etc. The client
	// will end the configuration sequence with 'configurationDone'.
	s.send(&dap.InitializedEvent{Event: *newEvent("initialized")})
	s.send(&dap.LaunchResponse{Response: *newResponse(request.Request)})
}

// onDisconnectRequest handles the DisconnectRequest. Per the protocol,
// it pauses the program and signals that the debug adaptor
// (in our case this TCP server) can be terminated.
func (s *Server) onDisconnectRequest(request *dap.DisconnectRequest) {
	s.haltAndWait()
	s.send(&dap.DisconnectResponse{Response: *newResponse(request.Request)})
	s.signalDisconnect()
}

func (s *Server) onSetBreakpointsRequest(request *dap.SetBreakpointsRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToSetBreakpoints, "Unable to set breakpoints", "no program loaded")
		return
	}
	prog, err := s.debugger.Program()
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToSetBreakpoints, "Unable to set breakpoints", err.Error())
		return
	}
	if path := request.Arguments.Source.Path; path != "" && !sameFile(path, prog.Path) {
		s.log.Warnf("breakpoints for %s applied to %s", path, prog.Path)
	}

	// Every request carries the full list of breakpoints of the source.
	for _, id := range s.sourceBreakpoints {
		if _, err := s.debugger.ClearBreakpoint(id); err != nil {
			s.log.Debug(err)
		}
	}
	s.sourceBreakpoints = s.sourceBreakpoints[:0]

	response := &dap.SetBreakpointsResponse{Response: *newResponse(request.Request)}
	response.Body.Breakpoints = make([]dap.Breakpoint, len(request.Arguments.Breakpoints))
	for i, want := range request.Arguments.Breakpoints {
		response.Body.Breakpoints[i].Line = want.Line
		line, ok := lineForSource(prog, want.Line)
		if !ok {
			response.Body.Breakpoints[i].Message = fmt.Sprintf("no instruction on line %d", want.Line)
			continue
		}
		cond := fmt.Sprintf("line(%d)", line)
		if want.Condition != "" {
			cond = fmt.Sprintf("all(%s, %s)", cond, want.Condition)
		}
		bp, err := s.debugger.CreateBreakpoint(cond)
		if err != nil {
			response.Body.Breakpoints[i].Message = err.Error()
			continue
		}
		s.sourceBreakpoints = append(s.sourceBreakpoints, bp.ID)
		response.Body.Breakpoints[i].Id = bp.ID
		response.Body.Breakpoints[i].Verified = true
	}
	s.send(response)
}

func lineForSource(prog *api.Program, sourceLine int) (int, bool) {
	for _, inst := range prog.Instructions {
		if inst.SourceLine == sourceLine {
			return inst.Line, true
		}
	}
	return -1, false
}

func sameFile(a, b string) bool {
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	return errA == nil && errB == nil && a == b
}

func (s *Server) onConfigurationDoneRequest(request *dap.ConfigurationDoneRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, FailedToLaunch, "Failed to launch", "no program loaded")
		return
	}
	if s.args.StopOnEntry {
		e := &dap.StoppedEvent{
			Event: *newEvent("stopped"),
			Body:  dap.StoppedEventBody{Reason: "entry", ThreadId: threadID, AllThreadsStopped: true},
		}
		s.send(e)
	}
	s.send(&dap.ConfigurationDoneResponse{Response: *newResponse(request.Request)})
	if !s.args.StopOnEntry {
		s.runUntilStop(api.Continue)
	}
}

func (s *Server) onContinueRequest(request *dap.ContinueRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToContinue, "Unable to continue", "no program loaded")
		return
	}
	response := &dap.ContinueResponse{Response: *newResponse(request.Request)}
	response.Body.AllThreadsContinued = true
	s.send(response)
	s.runUntilStop(api.Continue)
}

// onStepRequest handles next and stepIn: both execute one instruction.
func (s *Server) onStepRequest(request dap.Request) {
	if s.debugger == nil {
		s.sendErrorResponse(request, UnableToStep, "Unable to step", "no program loaded")
		return
	}
	switch request.Command {
	case "next":
		s.send(&dap.NextResponse{Response: *newResponse(request)})
	default:
		s.send(&dap.StepInResponse{Response: *newResponse(request)})
	}
	s.runUntilStop(api.Step)
}

func (s *Server) onPauseRequest(request *dap.PauseRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToHalt, "Unable to halt execution", "no program loaded")
		return
	}
	if done := s.runningDone(); done != nil {
		// The stopped event is sent by the execution goroutine.
		go s.requestHalt(done)
	}
	s.send(&dap.PauseResponse{Response: *newResponse(request.Request)})
}

func (s *Server) isRunning() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.running
}

// runUntilStop runs command on a new goroutine and reports how the program
// stopped.
func (s *Server) runUntilStop(command string) {
	s.variableHandles.reset()
	done := make(chan struct{})
	s.runningMu.Lock()
	s.running = true
	s.execDone = done
	s.runningMu.Unlock()

	go func() {
		defer close(done)
		state, err := s.debugger.Command(&api.DebuggerCommand{Name: command})
		s.handleStop(state, err)
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
	}()
}

// handleStop sends an apropriate event to the client when execution stops.
func (s *Server) handleStop(state *api.DebuggerState, err error) {
	if err != nil && !errors.Is(err, proc.ErrProcessHalted) {
		s.send(&dap.OutputEvent{
			Event: *newEvent("output"),
			Body: dap.OutputEventBody{
				Output:   fmt.Sprintf("ERROR: %v\n", err),
				Category: "stderr",
			}})
		e := &dap.StoppedEvent{Event: *newEvent("stopped")}
		e.Body.Reason = "exception"
		e.Body.Text = err.Error()
		e.Body.ThreadId = threadID
		e.Body.AllThreadsStopped = true
		s.send(e)
		return
	}

	if state.Halted && len(state.Breakpoints) == 0 {
		s.send(&dap.OutputEvent{
			Event: *newEvent("output"),
			Body: dap.OutputEventBody{
				Output:   fmt.Sprintf("program halted after %d instructions: %s\n", state.Count, formatRegisters(state.Registers)),
				Category: "console",
			}})
		e := &dap.ExitedEvent{Event: *newEvent("exited")}
		e.Body.ExitCode = 0
		s.send(e)
		s.send(&dap.TerminatedEvent{Event: *newEvent("terminated")})
		return
	}

	e := &dap.StoppedEvent{Event: *newEvent("stopped")}
	e.Body.ThreadId = threadID
	e.Body.AllThreadsStopped = true
	switch state.StopReason {
	case proc.StopBreakpoint.String():
		e.Body.Reason = "breakpoint"
		e.Body.Description = describeBreakpoints(state.Breakpoints)
	case proc.StopManual.String():
		e.Body.Reason = "pause"
	default:
		e.Body.Reason = "step"
	}
	s.send(e)
}

func describeBreakpoints(bps []*api.Breakpoint) string {
	var buf []byte
	for i, bp := range bps {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, fmt.Sprintf("breakpoint %d: %s", bp.ID, bp.Expr)...)
	}
	return string(buf)
}

func formatRegisters(regs []api.Register) string {
	var buf []byte
	for i, r := range regs {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, fmt.Sprintf("%s=%d", r.Name, r.Value)...)
	}
	return string(buf)
}

func (s *Server) onThreadsRequest(request *dap.ThreadsRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToDisplayThreads, "Unable to display threads", "debugger is nil")
		return
	}
	name := filepath.Base(s.args.Program)
	response := &dap.ThreadsResponse{
		Response: *newResponse(request.Request),
		Body:     dap.ThreadsResponseBody{Threads: []dap.Thread{{Id: threadID, Name: name}}},
	}
	s.send(response)
}

// onStackTraceRequest returns a single frame for the line the ip register
// points at.
func (s *Server) onStackTraceRequest(request *dap.StackTraceRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToProduceStackTrace, "Unable to produce stack trace", "no program loaded")
		return
	}
	state, err := s.debugger.State(false)
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToProduceStackTrace, "Unable to produce stack trace", err.Error())
		return
	}
	prog, err := s.debugger.Program()
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToProduceStackTrace, "Unable to produce stack trace", err.Error())
		return
	}

	frame := dap.StackFrame{Id: threadID, Name: fmt.Sprintf("line %d", state.Line)}
	if state.Line >= 0 && state.Line < len(prog.Instructions) {
		inst := prog.Instructions[state.Line]
		frame.Name = fmt.Sprintf("%d: %s", state.Line, inst.Text)
		frame.Line = inst.SourceLine
	} else {
		frame.PresentationHint = "subtle"
	}
	response := &dap.StackTraceResponse{
		Response: *newResponse(request.Request),
		Body:     dap.StackTraceResponseBody{StackFrames: []dap.StackFrame{frame}, TotalFrames: 1},
	}
	s.send(response)
}

func (s *Server) onScopesRequest(request *dap.ScopesRequest) {
	if s.debugger == nil || request.Arguments.FrameId != threadID {
		s.sendErrorResponse(request.Request, UnableToListRegisters, "Unable to list registers",
			fmt.Sprintf("unknown frame id %d", request.Arguments.FrameId))
		return
	}
	state, err := s.debugger.State(false)
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToListRegisters, "Unable to list registers", err.Error())
		return
	}
	scope := dap.Scope{
		Name:               "Registers",
		PresentationHint:   "registers",
		VariablesReference: s.variableHandles.create(&registerScope{state.Registers}),
		NamedVariables:     len(state.Registers),
	}
	response := &dap.ScopesResponse{
		Response: *newResponse(request.Request),
		Body:     dap.ScopesResponseBody{Scopes: []dap.Scope{scope}},
	}
	s.send(response)
}

// onVariablesRequest lists the registers of a scope or the values observed
// in a register.
func (s *Server) onVariablesRequest(request *dap.VariablesRequest) {
	ref, ok := s.variableHandles.get(request.Arguments.VariablesReference)
	if !ok {
		s.sendErrorResponse(request.Request, UnableToLookupVariable, "Unable to lookup variable",
			fmt.Sprintf("unknown reference %d", request.Arguments.VariablesReference))
		return
	}
	children := []dap.Variable{}
	switch v := ref.(type) {
	case *registerScope:
		for _, r := range v.registers {
			name := r.Name
			if r.IP {
				name += " (ip)"
			}
			child := dap.Variable{
				Name:         name,
				Value:        strconv.FormatInt(r.Value, 10),
				Type:         "int64",
				EvaluateName: r.Name,
			}
			if info, err := s.debugger.History(r.Name); err == nil {
				child.VariablesReference = s.variableHandles.create(&historyRef{info})
				child.IndexedVariables = info.Seen
			}
			children = append(children, child)
		}
	case *historyRef:
		for i, val := range v.info.Values {
			children = append(children, dap.Variable{
				Name:  fmt.Sprintf("[%d]", i),
				Value: strconv.FormatInt(val, 10),
				Type:  "int64",
			})
		}
	}
	response := &dap.VariablesResponse{
		Response: *newResponse(request.Request),
		Body:     dap.VariablesResponseBody{Variables: children},
	}
	s.send(response)
}

// onSetVariableRequest writes a register.
func (s *Server) onSetVariableRequest(request *dap.SetVariableRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToSetVariable, "Unable to set variable", "no program loaded")
		return
	}
	if _, ok := s.variableHandles.get(request.Arguments.VariablesReference); !ok {
		s.sendErrorResponse(request.Request, UnableToSetVariable, "Unable to set variable",
			fmt.Sprintf("unknown reference %d", request.Arguments.VariablesReference))
		return
	}
	value, err := strconv.ParseInt(request.Arguments.Value, 10, 64)
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToSetVariable, "Unable to set variable",
			fmt.Sprintf("%q is not an integer", request.Arguments.Value))
		return
	}
	// the ip register is listed as "<name> (ip)"
	name := strings.TrimSuffix(request.Arguments.Name, " (ip)")
	if err := s.debugger.SetRegister(name, value); err != nil {
		s.sendErrorResponse(request.Request, UnableToSetVariable, "Unable to set variable", err.Error())
		return
	}
	response := &dap.SetVariableResponse{Response: *newResponse(request.Request)}
	response.Body.Value = strconv.FormatInt(value, 10)
	response.Body.Type = "int64"
	s.send(response)
}

// onEvaluateRequest evaluates a register name or a breakpoint condition.
// Conditions are evaluated against the last executed instruction.
func (s *Server) onEvaluateRequest(request *dap.EvaluateRequest) {
	if s.debugger == nil {
		s.sendErrorResponse(request.Request, UnableToEvaluateExpression, "Unable to evaluate expression", "no program loaded")
		return
	}
	expr := request.Arguments.Expression
	response := &dap.EvaluateResponse{Response: *newResponse(request.Request)}
	if info, err := s.debugger.History(expr); err == nil {
		state, err := s.debugger.State(false)
		if err != nil {
			s.sendErrorResponse(request.Request, UnableToEvaluateExpression, "Unable to evaluate expression", err.Error())
			return
		}
		for _, r := range state.Registers {
			if r.Name == info.Register {
				response.Body.Result = strconv.FormatInt(r.Value, 10)
			}
		}
		response.Body.Type = "int64"
		response.Body.VariablesReference = s.variableHandles.create(&historyRef{info})
		response.Body.IndexedVariables = info.Seen
		s.send(response)
		return
	}
	ok, err := s.debugger.EvalCondition(expr)
	if err != nil {
		s.sendErrorResponse(request.Request, UnableToEvaluateExpression, "Unable to evaluate expression", err.Error())
		return
	}
	response.Body.Result = strconv.FormatBool(ok)
	response.Body.Type = "bool"
	s.send(response)
}

func (s *Server) sendErrorResponse(request dap.Request, id int, summary, details string) {
	er := &dap.ErrorResponse{}
	er.Type = "response"
	er.Command = request.Command
	er.RequestSeq = request.Seq
	er.Success = false
	er.Message = summary
	er.Body.Error = &dap.ErrorMessage{
		Id:     id,
		Format: fmt.Sprintf("%s: %s", summary, details),
	}
	s.log.Error(er.Body.Error.Format)
	s.send(er)
}

func (s *Server) sendInternalErrorResponse(seq int, details string) {
	er := &dap.ErrorResponse{}
	er.Type = "response"
	er.RequestSeq = seq
	er.Success = false
	er.Message = "Internal Error"
	er.Body.Error = &dap.ErrorMessage{
		Id:     InternalError,
		Format: fmt.Sprintf("%s: %s", er.Message, details),
	}
	s.log.Error(er.Body.Error.Format)
	s.send(er)
}

func (s *Server) sendUnsupportedErrorResponse(request *dap.Request) {
	s.sendErrorResponse(*request, UnsupportedCommand, "Unsupported command",
		fmt.Sprintf("cannot process '%s' request", request.Command))
}

func newResponse(request dap.Request) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  0,
			Type: "response",
		},
		Command:    request.Command,
		RequestSeq: request.Seq,
		Success:    true,
	}
}

func newEvent(event string) *dap.Event {
	return &dap.Event{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  0,
			Type: "event",
		},
		Event: event,
	}
}
