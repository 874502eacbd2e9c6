package terminal

import (
	"bytes"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-delve/elfdb/pkg/config"
	"github.com/go-delve/elfdb/pkg/logflags"
	"github.com/go-delve/elfdb/pkg/proc/test"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/rpc2"
	"github.com/go-delve/elfdb/service/rpccommon"
)

func TestMain(m *testing.M) {
	var logConf string
	flag.StringVar(&logConf, "log", "", "configures logging")
	flag.Parse()
	logflags.Setup(logConf != "", logConf, "")
	os.Exit(m.Run())
}

type FakeTerminal struct {
	*Term
	t testing.TB
}

func (ft *FakeTerminal) Exec(cmdstr string) (outstr string, err error) {
	outfh, err := ioutil.TempFile("", "cmdtestout")
	if err != nil {
		ft.t.Fatalf("could not create temporary file: %v", err)
	}
	defer os.Remove(outfh.Name())

	ft.Term.stdout.TranscribeTo(outfh, true)
	err = ft.cmds.Call(cmdstr, ft.Term)
	ft.Term.stdout.CloseTranscript()

	outbs, err1 := ioutil.ReadFile(outfh.Name())
	if err1 != nil {
		ft.t.Fatalf("could not read temporary output file: %v", err1)
	}
	return string(outbs), err
}

func (ft *FakeTerminal) ExecStarlark(starlarkProgram string) (outstr string, err error) {
	outfh, err := ioutil.TempFile("", "cmdtestout")
	if err != nil {
		ft.t.Fatalf("could not create temporary file: %v", err)
	}
	defer os.Remove(outfh.Name())

	ft.Term.stdout.TranscribeTo(outfh, true)
	_, err = ft.Term.starlarkEnv.Execute("<stdin>", starlarkProgram, "main", nil)
	ft.Term.stdout.CloseTranscript()

	outbs, err1 := ioutil.ReadFile(outfh.Name())
	if err1 != nil {
		ft.t.Fatalf("could not read temporary output file: %v", err1)
	}
	return string(outbs), err
}

func (ft *FakeTerminal) MustExec(cmdstr string) string {
	ft.t.Helper()
	outstr, err := ft.Exec(cmdstr)
	if err != nil {
		ft.t.Errorf("output of %q: %q", cmdstr, outstr)
		ft.t.Fatalf("Error executing <%s>: %v", cmdstr, err)
	}
	return outstr
}

func (ft *FakeTerminal) MustExecStarlark(starlarkProgram string) string {
	ft.t.Helper()
	outstr, err := ft.ExecStarlark(starlarkProgram)
	if err != nil {
		ft.t.Errorf("output of %q: %q", starlarkProgram, outstr)
		ft.t.Fatalf("Error executing <%s>: %v", starlarkProgram, err)
	}
	return outstr
}

func (ft *FakeTerminal) AssertExec(cmdstr, tgt string) {
	ft.t.Helper()
	out := ft.MustExec(cmdstr)
	if out != tgt {
		ft.t.Fatalf("Error executing %q, expected %q got %q", cmdstr, tgt, out)
	}
}

func (ft *FakeTerminal) AssertExecError(cmdstr, tgterr string) {
	ft.t.Helper()
	_, err := ft.Exec(cmdstr)
	if err == nil {
		ft.t.Fatalf("Expected error executing %q", cmdstr)
	}
	if !strings.Contains(err.Error(), tgterr) {
		ft.t.Fatalf("Expected error %q executing %q, got error %q", tgterr, cmdstr, err.Error())
	}
}

func withTestTerminal(name string, t testing.TB, fn func(*FakeTerminal)) {
	withTestTerminalConfig(name, t, &config.Config{}, fn)
}

func withTestTerminalConfig(name string, t testing.TB, conf *config.Config, fn func(*FakeTerminal)) {
	os.Setenv("TERM", "dumb")
	fixture := test.GetFixture(t, name)
	listener, clientConn := service.ListenerPipe()
	server := rpccommon.NewServer(&service.Config{
		Listener: listener,
		Program:  fixture.Path,
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	defer server.Stop()
	client := rpc2.NewClientFromConn(clientConn)
	defer func() {
		client.Detach()
	}()

	ft := &FakeTerminal{
		t:    t,
		Term: New(client, conf),
	}
	fn(ft)
}

func TestCommandDefault(t *testing.T) {
	var (
		cmds = Commands{}
		cmd  = cmds.Find("non-existent-command")
	)

	err := cmd(nil, callContext{}, "")
	if err == nil {
		t.Fatal("cmd() did not default")
	}

	if err.Error() != "command not available" {
		t.Fatal("wrong command output")
	}
}

func TestCommandReplayWithoutPreviousCommand(t *testing.T) {
	var (
		cmds = DebugCommands(nil)
		cmd  = cmds.Find("")
		err  = cmd(nil, callContext{}, "")
	)

	if err != nil {
		t.Error("Null command not returned", err)
	}
}

func TestRegisterOverridesCommand(t *testing.T) {
	cmds := DebugCommands(nil)
	called := false
	cmds.Register("step", func(t *Term, ctx callContext, args string) error {
		called = true
		return nil
	}, "custom step")
	if err := cmds.Find("s")(nil, callContext{}, ""); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("registered command was not called through its alias")
	}
	cmds.Register("newcmd", func(t *Term, ctx callContext, args string) error {
		return nil
	}, "a new command")
	if err := cmds.Find("newcmd")(nil, callContext{}, ""); err != nil {
		t.Fatal(err)
	}
}

func TestMergeAliases(t *testing.T) {
	cmds := DebugCommands(nil)
	cmds.Merge(map[string][]string{"continue": {"go"}, "nonexistent": {"x"}})
	for _, cmd := range cmds.cmds {
		if cmd.aliases[0] != "continue" {
			continue
		}
		found := false
		for _, alias := range cmd.aliases {
			if alias == "go" {
				found = true
			}
		}
		if !found {
			t.Fatalf("alias not merged: %v", cmd.aliases)
		}
	}
}

func TestBreakpointCommands(t *testing.T) {
	withTestTerminal("divisors", t, func(term *FakeTerminal) {
		term.AssertExec("breakpoints", "No breakpoints.\n")
		term.AssertExec("break line(7)", "Breakpoint 1 set: line(7)\n")
		term.AssertExecError("break all(line(7), eq(b, 5", "")
		term.AssertExecError("break", "wrong number of arguments")

		out := term.MustExec("continue")
		for _, frag := range []string{"> [Breakpoint 1] line(7) (hits: 1)\n", "   7: addr 0 1 0\n", "a     = 1\n"} {
			if !strings.Contains(out, frag) {
				t.Errorf("expected %q in output of continue: %q", frag, out)
			}
		}

		term.AssertExec("breakpoints", "Breakpoint 1: line(7) (hits: 1)\n")
		term.AssertExec("toggle 1", "Breakpoint 1 disabled\n")
		term.AssertExec("breakpoints", "Breakpoint 1 (disabled): line(7) (hits: 1)\n")

		out = term.MustExec("continue")
		if !strings.Contains(out, "Program halted after 842 instructions") {
			t.Errorf("program did not run to the end: %q", out)
		}
		if !strings.Contains(out, "a     = 18\n") {
			t.Errorf("wrong final value of a: %q", out)
		}
		term.AssertExecError("continue", "halted")
		term.AssertExecError("step", "halted")

		term.AssertExec("remove", "Breakpoint 1 cleared: line(7)\n")
		term.AssertExecError("remove 1", "no breakpoint with id 1")
		term.AssertExecError("remove x", "invalid breakpoint id")
		term.AssertExecError("toggle 1", "no breakpoint with id 1")
	})
}

func TestStepCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		out := term.MustExec("step")
		for _, frag := range []string{"   0: seti 5 0 1\n", "\tb: 0 -> 5 (new)\n", "Stopped at line 1 after 1 instructions\n", "  b     = 5\n", "  a(ip) = 1\n"} {
			if !strings.Contains(out, frag) {
				t.Errorf("expected %q in output of step: %q", frag, out)
			}
		}

		term.AssertExec("", "")

		term.MustExec("step")
		out = term.MustExec("step")
		if !strings.Contains(out, "   2: addi 0 1 0\n") {
			t.Errorf("wrong instruction executed: %q", out)
		}
		if !strings.Contains(out, "* a(ip) = ") || strings.Contains(out, "* b") {
			t.Errorf("read registers not marked: %q", out)
		}
	})
}

func TestContinueToHalt(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		out := term.MustExec("continue")
		if !strings.Contains(out, "Program halted after 5 instructions (5 distinct lines)\n") {
			t.Fatalf("wrong output of continue: %q", out)
		}
		for _, frag := range []string{"a(ip) = 7\n", "b     = 5\n", "c     = 6\n", "f     = 9\n"} {
			if !strings.Contains(out, frag) {
				t.Errorf("expected %q in output of continue: %q", frag, out)
			}
		}

		out = term.MustExec("state")
		if !strings.Contains(out, "halted (halted)") {
			t.Errorf("wrong state: %q", out)
		}
		if !regexp.MustCompile(`Instructions executed:\s+5\n`).MatchString(out) {
			t.Errorf("wrong instruction count: %q", out)
		}
		if !regexp.MustCompile(`Distinct lines executed:\s+5\n`).MatchString(out) {
			t.Errorf("wrong line count: %q", out)
		}

		out = term.MustExec("reset")
		if !strings.HasPrefix(out, "Program reset.\n") || !strings.Contains(out, "b     = 0\n") {
			t.Fatalf("wrong output of reset: %q", out)
		}
		out = term.MustExec("step")
		if !strings.Contains(out, "   0: seti 5 0 1\n") {
			t.Fatalf("program not reset: %q", out)
		}
	})
}

func TestHaltCommand(t *testing.T) {
	withTestTerminal("loop", t, func(term *FakeTerminal) {
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-time.After(50 * time.Millisecond):
				}
				term.client.Halt()
			}
		}()
		out, err := term.Exec("continue")
		close(done)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "> Program paused\n") {
			t.Fatalf("program was not paused: %q", out)
		}
		out = term.MustExec("state")
		if !strings.Contains(out, "paused (manual)") {
			t.Fatalf("wrong state after halt: %q", out)
		}
	})
}

func TestRegisterCommands(t *testing.T) {
	withTestTerminal("unique", t, func(term *FakeTerminal) {
		term.AssertExec("history d", "d: no values seen\n")
		term.MustExec("step")
		term.AssertExec("set d 42", "d = 42\n")
		term.AssertExec("set c 0x10", "c = 16\n")
		out := term.MustExec("regs")
		if !strings.Contains(out, "d     = 42\n") || !strings.Contains(out, "c     = 16\n") {
			t.Fatalf("registers not set: %q", out)
		}
		term.AssertExec("history d", "d: 2 values seen, last 42\n\t3 42\n")
		term.AssertExecError("set g 1", "")
		term.AssertExecError("set d x", "invalid value")
		term.AssertExecError("set d", "wrong number of arguments")
		term.AssertExecError("history", "wrong number of arguments")
	})
}

func TestInspectUnique(t *testing.T) {
	withTestTerminal("unique", t, func(term *FakeTerminal) {
		term.AssertExecError("inspect", "no breakpoints")
		term.AssertExec("break unique(d)", "Breakpoint 1 set: unique(d)\n")
		for _, line := range []string{"0", "1", "3"} {
			out := term.MustExec("continue")
			if !strings.Contains(out, "> [Breakpoint 1] unique(d)") {
				t.Fatalf("breakpoint did not fire: %q", out)
			}
			if !strings.Contains(out, "   "+line+": seti ") {
				t.Fatalf("expected stop after line %s: %q", line, out)
			}
		}
		out := term.MustExec("continue")
		if !strings.Contains(out, "Program halted") {
			t.Fatalf("expected halt: %q", out)
		}

		term.AssertExec("inspect", "Breakpoint 1: unique(d)\n\thits 3\n\td: 3 values seen, last 9\n\t\t3 7 9\n")
		term.AssertExec("inspect 1", "Breakpoint 1: unique(d)\n\thits 3\n\td: 3 values seen, last 9\n\t\t3 7 9\n")
		term.MustExec("config max-history-values 2")
		term.AssertExec("history d", "d: 3 values seen, last 9\n\t... 7 9\n")
	})
}

func TestPrintCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		term.MustExec("step")
		term.AssertExec("print line(0)", "true\n")
		term.AssertExec("print write(b)", "true\n")
		term.AssertExec("print eq(b, 6)", "false\n")
		term.AssertExec("print all(line(0), eq(b, 5))", "true\n")
		term.AssertExecError("print", "wrong number of arguments")
	})
}

func TestListCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		term.AssertExec("list", "=>   0:\tseti 5 0 1\n     1:\tseti 6 0 2\n     2:\taddi 0 1 0\n     3:\taddr 1 2 3\n     4:\tsetr 1 0 0\n     5:\tseti 8 0 4\n")

		out := term.MustExec("list 6")
		if !strings.HasPrefix(out, "     1:\tseti 6 0 2\n") || !strings.HasSuffix(out, "     6:\tseti 9 0 5\n") {
			t.Fatalf("wrong output of list 6: %q", out)
		}
		term.AssertExecError("list x", "invalid line")

		term.MustExec("config list-context-lines 0")
		term.MustExec("config human-decoding true")
		term.AssertExec("list", "=>   0:\tb  = 5\n")
	})
}

func TestLoadCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		term.MustExec("break line(1)")
		path := test.GetFixture(t, "unique").Path
		out := term.MustExec("load " + path)
		if !strings.Contains(out, ": 4 instructions, ip bound to register f\n") {
			t.Fatalf("wrong output of load: %q", out)
		}
		out = term.MustExec("state")
		if !strings.Contains(out, "unique.elf") {
			t.Fatalf("program not loaded: %q", out)
		}
		term.AssertExecError("load", "wrong number of arguments")
		term.AssertExecError("load /nonexistent/file.elf", "")
	})
}

func TestConfigCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		out := term.MustExec("config -list")
		for _, name := range []string{"human-decoding", "list-context-lines", "max-history-values"} {
			if !strings.Contains(out, name) {
				t.Errorf("%s missing from config -list: %q", name, out)
			}
		}
		term.MustExec("config alias step forward")
		out = term.MustExec("forward")
		if !strings.Contains(out, "   0: seti 5 0 1\n") {
			t.Fatalf("alias did not step: %q", out)
		}
		term.MustExec("config alias forward")
		term.AssertExecError("forward", "command not available")
		term.AssertExecError("config nonexistent 1", "")
		term.AssertExecError("config", "")
	})
}

func TestSourceCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		dir := t.TempDir()
		path := filepath.Join(dir, "init")
		script := "# setup\nbreak line(4)\ncontinue\nbogus\n"
		if err := ioutil.WriteFile(path, []byte(script), 0o600); err != nil {
			t.Fatal(err)
		}
		out := term.MustExec("source " + path)
		for _, frag := range []string{"Breakpoint 1 set: line(4)\n", "> [Breakpoint 1] line(4) (hits: 1)\n", path + ":4: command not available\n"} {
			if !strings.Contains(out, frag) {
				t.Errorf("expected %q in output of source: %q", frag, out)
			}
		}

		inner := filepath.Join(dir, "repl")
		if err := ioutil.WriteFile(inner, []byte("source -\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		out = term.MustExec("source " + inner)
		if !strings.Contains(out, "can not be started from a script") {
			t.Fatalf("repl started from script: %q", out)
		}
		term.AssertExecError("source", "wrong number of arguments")
	})
}

func TestExitCommand(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		_, err := term.Exec("exit")
		if _, ok := err.(ExitRequestError); !ok {
			t.Fatalf("expected ExitRequestError, got %v", err)
		}
	})
}

func TestHelpAndVersion(t *testing.T) {
	withTestTerminal("sample", t, func(term *FakeTerminal) {
		out := term.MustExec("help")
		for _, frag := range []string{"Running the program:", "Manipulating breakpoints:", "continue (alias: c)"} {
			if !strings.Contains(out, frag) {
				t.Errorf("expected %q in help: %q", frag, out)
			}
		}
		out = term.MustExec("help break")
		if !strings.Contains(out, "unique(") {
			t.Errorf("help break does not describe conditions: %q", out)
		}
		out = term.MustExec("version")
		if !strings.HasPrefix(out, "Elfdb Debugger\n") || !strings.Contains(out, "API version: 2\n") {
			t.Errorf("wrong version output: %q", out)
		}
	})
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	cmds := DebugCommands(nil)
	cmds.WriteMarkdown(&buf)
	out := buf.String()
	for _, cmd := range cmds.cmds {
		if !strings.Contains(out, "## "+cmd.aliases[0]) {
			t.Errorf("command %s not documented", cmd.aliases[0])
		}
	}
}
