package starbind

import (
	"fmt"
	"reflect"

	"go.starlark.net/starlark"

	"github.com/go-delve/elfdb/service/api"
	"github.com/go-delve/elfdb/service/rpc2"
)

// apiBinding describes a builtin that calls an API method.
type apiBinding struct {
	name   string
	method string
	// in and out allocate the argument and the reply of the method.
	in, out func() interface{}
	doc     string
}

var apiBindings = []apiBinding{
	{"clear_breakpoint", "ClearBreakpoint",
		func() interface{} { return &rpc2.ClearBreakpointIn{} }, func() interface{} { return &rpc2.ClearBreakpointOut{} },
		"clear_breakpoint deletes the breakpoint Id, or the most recently created one if Last is set."},
	{"create_breakpoint", "CreateBreakpoint",
		func() interface{} { return &rpc2.CreateBreakpointIn{} }, func() interface{} { return &rpc2.CreateBreakpointOut{} },
		"create_breakpoint creates a breakpoint from the condition Cond."},
	{"eval", "Eval",
		func() interface{} { return &rpc2.EvalIn{} }, func() interface{} { return &rpc2.EvalOut{} },
		"eval evaluates the condition Cond against the last executed instruction."},
	{"get_breakpoint", "GetBreakpoint",
		func() interface{} { return &rpc2.GetBreakpointIn{} }, func() interface{} { return &rpc2.GetBreakpointOut{} },
		"get_breakpoint gets the breakpoint Id, including the values seen by its unique terms."},
	{"get_version", "GetVersion",
		func() interface{} { return &api.GetVersionIn{} }, func() interface{} { return &api.GetVersionOut{} },
		"get_version returns the version of the debugger and of the API."},
	{"list_breakpoints", "ListBreakpoints",
		func() interface{} { return &rpc2.ListBreakpointsIn{} }, func() interface{} { return &rpc2.ListBreakpointsOut{} },
		"list_breakpoints gets all breakpoints."},
	{"list_instructions", "ListInstructions",
		func() interface{} { return &rpc2.ListInstructionsIn{} }, func() interface{} { return &rpc2.ListInstructionsOut{} },
		"list_instructions returns the loaded program."},
	{"load", "Load",
		func() interface{} { return &rpc2.LoadIn{} }, func() interface{} { return &rpc2.LoadOut{} },
		"load replaces the program with the one at Path."},
	{"raw_command", "Command",
		func() interface{} { return &api.DebuggerCommand{} }, func() interface{} { return &rpc2.CommandOut{} },
		"raw_command executes the execution command Name: \"continue\", \"step\" or \"halt\"."},
	{"register_history", "RegisterHistory",
		func() interface{} { return &rpc2.RegisterHistoryIn{} }, func() interface{} { return &rpc2.RegisterHistoryOut{} },
		"register_history returns the values seen by Register."},
	{"restart", "Restart",
		func() interface{} { return &rpc2.RestartIn{} }, func() interface{} { return &rpc2.RestartOut{} },
		"restart resets the program to its initial state, breakpoints are kept."},
	{"set_register", "SetRegister",
		func() interface{} { return &rpc2.SetRegisterIn{} }, func() interface{} { return &rpc2.SetRegisterOut{} },
		"set_register writes Value to Register."},
	{"state", "State",
		func() interface{} { return &rpc2.StateIn{} }, func() interface{} { return &rpc2.StateOut{} },
		"state returns the current debugger state, with NonBlocking set it returns immediately while the program runs."},
	{"toggle_breakpoint", "ToggleBreakpoint",
		func() interface{} { return &rpc2.ToggleBreakpointIn{} }, func() interface{} { return &rpc2.ToggleBreakpointOut{} },
		"toggle_breakpoint enables or disables the breakpoint Id."},
}

func (env *Env) starlarkPredeclare() (starlark.StringDict, map[string]string) {
	r := starlark.StringDict{}
	doc := make(map[string]string)

	for i := range apiBindings {
		b := &apiBindings[i]
		r[b.name] = starlark.NewBuiltin(b.name, env.apiBuiltin(b))
		doc[b.name] = fmt.Sprintf("builtin %s(%s)\n\n%s", b.name, fieldList(b.in()), b.doc)
	}
	return r, doc
}

func (env *Env) apiBuiltin(b *apiBinding) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := isCancelled(thread); err != nil {
			return starlark.None, decorateError(thread, err)
		}
		rpcArgs, rpcRet := b.in(), b.out()
		argv := reflect.ValueOf(rpcArgs).Elem()
		if len(args) > argv.NumField() {
			return starlark.None, decorateError(thread, fmt.Errorf("too many arguments to %s", b.name))
		}
		for i := range args {
			if args[i] == starlark.None {
				continue
			}
			field := argv.Type().Field(i)
			err := unmarshalStarlarkValue(args[i], argv.Field(i).Addr().Interface(), field.Name)
			if err != nil {
				return starlark.None, decorateError(thread, err)
			}
		}
		for _, kv := range kwargs {
			name, _ := kv[0].(starlark.String)
			field := argv.FieldByName(string(name))
			if !field.IsValid() {
				return starlark.None, decorateError(thread, fmt.Errorf("unknown argument %q", kv[0]))
			}
			if err := unmarshalStarlarkValue(kv[1], field.Addr().Interface(), string(name)); err != nil {
				return starlark.None, decorateError(thread, err)
			}
		}
		err := env.ctx.Client().CallAPI(b.method, rpcArgs, rpcRet)
		if err != nil {
			return starlark.None, err
		}
		return env.interfaceToStarlarkValue(rpcRet), nil
	}
}

// fieldList returns the names of the fields of the struct pointed to by v.
func fieldList(v interface{}) string {
	typ := reflect.TypeOf(v).Elem()
	r := ""
	for i := 0; i < typ.NumField(); i++ {
		if i > 0 {
			r += ", "
		}
		r += typ.Field(i).Name
	}
	return r
}
