package rpccommon

import (
	"reflect"

	"github.com/go-delve/elfdb/service/rpc2"
)

func suitableMethods2(s *rpc2.RPCServer, methods map[string]*methodType) {
	methods["RPCServer.ClearBreakpoint"] = &methodType{method: reflect.ValueOf(s.ClearBreakpoint)}
	methods["RPCServer.Command"] = &methodType{method: reflect.ValueOf(s.Command)}
	methods["RPCServer.CreateBreakpoint"] = &methodType{method: reflect.ValueOf(s.CreateBreakpoint)}
	methods["RPCServer.Detach"] = &methodType{method: reflect.ValueOf(s.Detach)}
	methods["RPCServer.Eval"] = &methodType{method: reflect.ValueOf(s.Eval)}
	methods["RPCServer.GetBreakpoint"] = &methodType{method: reflect.ValueOf(s.GetBreakpoint)}
	methods["RPCServer.IsMulticlient"] = &methodType{method: reflect.ValueOf(s.IsMulticlient)}
	methods["RPCServer.ListBreakpoints"] = &methodType{method: reflect.ValueOf(s.ListBreakpoints)}
	methods["RPCServer.ListInstructions"] = &methodType{method: reflect.ValueOf(s.ListInstructions)}
	methods["RPCServer.Load"] = &methodType{method: reflect.ValueOf(s.Load)}
	methods["RPCServer.RegisterHistory"] = &methodType{method: reflect.ValueOf(s.RegisterHistory)}
	methods["RPCServer.Restart"] = &methodType{method: reflect.ValueOf(s.Restart)}
	methods["RPCServer.SetRegister"] = &methodType{method: reflect.ValueOf(s.SetRegister)}
	methods["RPCServer.State"] = &methodType{method: reflect.ValueOf(s.State)}
	methods["RPCServer.ToggleBreakpoint"] = &methodType{method: reflect.ValueOf(s.ToggleBreakpoint)}
}

func suitableMethodsCommon(s *RPCServer, methods map[string]*methodType) {
	methods["RPCServer.GetVersion"] = &methodType{method: reflect.ValueOf(s.GetVersion)}
}
