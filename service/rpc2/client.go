package rpc2

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
)

// RPCClient is a RPC service.Client.
type RPCClient struct {
	client *rpc.Client
}

// Ensure the implementation satisfies the interface.
var _ service.Client = &RPCClient{}

// NewClient creates a new RPCClient.
func NewClient(addr string) (*RPCClient, error) {
	client, err := jsonrpc.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newFromRPCClient(client), nil
}

func newFromRPCClient(client *rpc.Client) *RPCClient {
	return &RPCClient{client: client}
}

// NewClientFromConn creates a new RPCClient from the given connection.
func NewClientFromConn(conn net.Conn) *RPCClient {
	return newFromRPCClient(jsonrpc.NewClient(conn))
}

func (c *RPCClient) Detach() error {
	defer c.client.Close()
	out := new(DetachOut)
	return c.client.Call("RPCServer.Detach", DetachIn{}, out)
}

func (c *RPCClient) Restart() (*api.DebuggerState, error) {
	out := new(RestartOut)
	err := c.call("Restart", RestartIn{}, out)
	return &out.State, err
}

func (c *RPCClient) Load(path string) (*api.DebuggerState, error) {
	out := new(LoadOut)
	err := c.call("Load", LoadIn{Path: path}, out)
	return &out.State, err
}

func (c *RPCClient) GetState() (*api.DebuggerState, error) {
	var out StateOut
	err := c.call("State", StateIn{NonBlocking: false}, &out)
	return out.State, err
}

func (c *RPCClient) GetStateNonBlocking() (*api.DebuggerState, error) {
	var out StateOut
	err := c.call("State", StateIn{NonBlocking: true}, &out)
	return out.State, err
}

func (c *RPCClient) Continue() <-chan *api.DebuggerState {
	ch := make(chan *api.DebuggerState)
	go func() {
		out := new(CommandOut)
		err := c.call("Command", &api.DebuggerCommand{Name: api.Continue}, &out)
		state := out.State
		if err != nil {
			state.Err = err
		}
		ch <- &state
		close(ch)
	}()
	return ch
}

func (c *RPCClient) Step() (*api.DebuggerState, error) {
	var out CommandOut
	err := c.call("Command", api.DebuggerCommand{Name: api.Step}, &out)
	return &out.State, err
}

func (c *RPCClient) Halt() (*api.DebuggerState, error) {
	var out CommandOut
	err := c.call("Command", api.DebuggerCommand{Name: api.Halt}, &out)
	return &out.State, err
}

func (c *RPCClient) GetBreakpoint(id int) (*api.Breakpoint, error) {
	var out GetBreakpointOut
	err := c.call("GetBreakpoint", GetBreakpointIn{id}, &out)
	return &out.Breakpoint, err
}

func (c *RPCClient) CreateBreakpoint(cond string) (*api.Breakpoint, error) {
	var out CreateBreakpointOut
	err := c.call("CreateBreakpoint", CreateBreakpointIn{Cond: cond}, &out)
	return &out.Breakpoint, err
}

func (c *RPCClient) ListBreakpoints() ([]*api.Breakpoint, error) {
	var out ListBreakpointsOut
	err := c.call("ListBreakpoints", ListBreakpointsIn{}, &out)
	return out.Breakpoints, err
}

func (c *RPCClient) ClearBreakpoint(id int) (*api.Breakpoint, error) {
	var out ClearBreakpointOut
	err := c.call("ClearBreakpoint", ClearBreakpointIn{Id: id}, &out)
	return out.Breakpoint, err
}

func (c *RPCClient) ClearLastBreakpoint() (*api.Breakpoint, error) {
	var out ClearBreakpointOut
	err := c.call("ClearBreakpoint", ClearBreakpointIn{Last: true}, &out)
	return out.Breakpoint, err
}

func (c *RPCClient) ToggleBreakpoint(id int) (*api.Breakpoint, error) {
	var out ToggleBreakpointOut
	err := c.call("ToggleBreakpoint", ToggleBreakpointIn{id}, &out)
	return out.Breakpoint, err
}

func (c *RPCClient) SetRegister(name string, value int64) error {
	out := new(SetRegisterOut)
	return c.call("SetRegister", SetRegisterIn{Register: name, Value: value}, out)
}

func (c *RPCClient) RegisterHistory(name string) (*api.UniqueInfo, error) {
	var out RegisterHistoryOut
	err := c.call("RegisterHistory", RegisterHistoryIn{Register: name}, &out)
	return &out.History, err
}

func (c *RPCClient) ListInstructions() (*api.Program, error) {
	var out ListInstructionsOut
	err := c.call("ListInstructions", ListInstructionsIn{}, &out)
	return &out.Program, err
}

func (c *RPCClient) EvalCondition(cond string) (bool, error) {
	var out EvalOut
	err := c.call("Eval", EvalIn{Cond: cond}, &out)
	return out.Value, err
}

func (c *RPCClient) GetVersion() (*api.GetVersionOut, error) {
	var out api.GetVersionOut
	err := c.call("GetVersion", api.GetVersionIn{}, &out)
	return &out, err
}

func (c *RPCClient) IsMulticlient() bool {
	var out IsMulticlientOut
	c.call("IsMulticlient", IsMulticlientIn{}, &out)
	return out.IsMulticlient
}

func (c *RPCClient) Disconnect(cont bool) error {
	if cont {
		out := new(CommandOut)
		c.client.Go("RPCServer.Command", &api.DebuggerCommand{Name: api.Continue}, &out, nil)
	}
	return c.client.Close()
}

func (c *RPCClient) call(method string, args, reply interface{}) error {
	return c.client.Call("RPCServer."+method, args, reply)
}

// CallAPI calls method of the server with the given arguments, it is used
// by scripts to reach the whole API.
func (c *RPCClient) CallAPI(method string, args, reply interface{}) error {
	return c.call(method, args, reply)
}
