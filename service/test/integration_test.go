package service_test

import (
	"flag"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-delve/elfdb/pkg/logflags"
	protest "github.com/go-delve/elfdb/pkg/proc/test"
	"github.com/go-delve/elfdb/service"
	"github.com/go-delve/elfdb/service/api"
	"github.com/go-delve/elfdb/service/rpc2"
	"github.com/go-delve/elfdb/service/rpccommon"
)

func TestMain(m *testing.M) {
	var logOutput string
	flag.StringVar(&logOutput, "log-output", "", "configures log output")
	flag.Parse()
	logflags.Setup(logOutput != "", logOutput, "")
	os.Exit(m.Run())
}

func startServer(t *testing.T, program string, disconnectChan chan<- struct{}) net.Conn {
	listener, clientConn := service.ListenerPipe()
	server := rpccommon.NewServer(&service.Config{
		Listener:       listener,
		Program:        program,
		DisconnectChan: disconnectChan,
	})
	if err := server.Run(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { server.Stop() })
	return clientConn
}

func withTestClient(name string, t *testing.T, fn func(c service.Client)) {
	fixture := protest.GetFixture(t, name)
	client := rpc2.NewClientFromConn(startServer(t, fixture.Path, nil))
	defer client.Detach()
	fn(client)
}

func TestClientServer_continueToHalt(t *testing.T) {
	withTestClient("sample", t, func(c service.Client) {
		state := <-c.Continue()
		assertNoError(state.Err, t, "Continue()")
		if !state.Halted {
			t.Fatalf("expected halted program, got %#v", state)
		}
		if state.Count != 5 {
			t.Fatalf("expected 5 executed instructions, got %d", state.Count)
		}
		want := []int64{7, 5, 6, 0, 0, 9}
		for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
			if v := registerValue(t, state, name); v != want[i] {
				t.Errorf("register %s: expected %d got %d", name, want[i], v)
			}
		}

		state = <-c.Continue()
		assertErrorContains(state.Err, t, "halted", "Continue() after halt")
		_, err := c.Step()
		assertErrorContains(err, t, "halted", "Step() after halt")
	})
}

func TestClientServer_breakpoints(t *testing.T) {
	withTestClient("divisors", t, func(c service.Client) {
		bp, err := c.CreateBreakpoint("line(7)")
		assertNoError(err, t, "CreateBreakpoint()")
		if bp.ID != 1 {
			t.Fatalf("expected breakpoint 1, got %d", bp.ID)
		}

		_, err = c.CreateBreakpoint("all(line(7), eq(b, 5")
		assertErrorContains(err, t, "malformed", "CreateBreakpoint(malformed)")

		for _, want := range []int64{1, 3, 8, 18} {
			state := <-c.Continue()
			assertNoError(state.Err, t, "Continue()")
			if state.StopReason != "breakpoint" {
				t.Fatalf("expected breakpoint stop, got %q", state.StopReason)
			}
			if ids := breakpointIDs(state.Breakpoints); !reflect.DeepEqual(ids, []int{1}) {
				t.Fatalf("expected breakpoint 1 to fire, got %v", ids)
			}
			if state.LastStep == nil || state.LastStep.Line != 7 {
				t.Fatalf("expected stop after line 7, got %#v", state.LastStep)
			}
			if a := registerValue(t, state, "a"); a != want {
				t.Fatalf("expected a=%d got %d", want, a)
			}
		}

		bps, err := c.ListBreakpoints()
		assertNoError(err, t, "ListBreakpoints()")
		if len(bps) != 1 || bps[0].HitCount != 4 {
			t.Fatalf("unexpected breakpoints %#v", bps)
		}

		state := <-c.Continue()
		assertNoError(state.Err, t, "Continue()")
		if !state.Halted || state.Count != 842 || registerValue(t, state, "a") != 18 {
			t.Fatalf("unexpected final state %#v", state)
		}

		_, err = c.ClearBreakpoint(1)
		assertNoError(err, t, "ClearBreakpoint()")
		_, err = c.ClearBreakpoint(1)
		assertErrorContains(err, t, "1", "ClearBreakpoint() twice")
	})
}

func TestClientServer_stepIgnoresBreakpoints(t *testing.T) {
	withTestClient("sample", t, func(c service.Client) {
		_, err := c.CreateBreakpoint("line(0)")
		assertNoError(err, t, "CreateBreakpoint()")
		state, err := c.Step()
		assertNoError(err, t, "Step()")
		if state.StopReason != "step" || len(state.Breakpoints) != 0 {
			t.Fatalf("step reported a breakpoint: %#v", state)
		}
		if state.Line != 1 || registerValue(t, state, "b") != 5 {
			t.Fatalf("unexpected state after step %#v", state)
		}
		ok, err := c.EvalCondition("all(line(0), write(b))")
		assertNoError(err, t, "EvalCondition()")
		if !ok {
			t.Fatal("expected condition to be true")
		}
	})
}

func TestClientServer_uniqueHistory(t *testing.T) {
	withTestClient("unique", t, func(c service.Client) {
		bp, err := c.CreateBreakpoint("unique(d)")
		assertNoError(err, t, "CreateBreakpoint()")

		var lines []int
		for {
			state := <-c.Continue()
			assertNoError(state.Err, t, "Continue()")
			if len(state.Breakpoints) > 0 {
				lines = append(lines, state.LastStep.Line)
			}
			if state.Halted {
				break
			}
		}
		if !reflect.DeepEqual(lines, []int{0, 1, 3}) {
			t.Fatalf("expected unique(d) to fire on lines [0 1 3], got %v", lines)
		}

		bp, err = c.GetBreakpoint(bp.ID)
		assertNoError(err, t, "GetBreakpoint()")
		if len(bp.Unique) != 1 || bp.Unique[0].Register != "d" || bp.Unique[0].Seen != 3 || bp.Unique[0].Last != 9 {
			t.Fatalf("unexpected unique info %#v", bp.Unique)
		}

		h, err := c.RegisterHistory("d")
		assertNoError(err, t, "RegisterHistory()")
		if !reflect.DeepEqual(h.Values, []int64{3, 7, 9}) {
			t.Fatalf("unexpected history %v", h.Values)
		}
	})
}

func TestClientServer_halt(t *testing.T) {
	withTestClient("loop", t, func(c service.Client) {
		ch := c.Continue()
		var state *api.DebuggerState
		for state == nil {
			select {
			case state = <-ch:
			case <-time.After(20 * time.Millisecond):
				_, err := c.Halt()
				assertNoError(err, t, "Halt()")
			}
		}
		assertNoError(state.Err, t, "Continue()")
		if state.Halted || state.StopReason != "manual" {
			t.Fatalf("expected manual stop, got %#v", state)
		}
		if state.Count == 0 {
			t.Fatal("no instruction executed before the manual stop")
		}
	})
}

func TestClientServer_setRegisterAndRestart(t *testing.T) {
	withTestClient("sample", t, func(c service.Client) {
		assertNoError(c.SetRegister("ip", 6), t, "SetRegister(ip)")
		state, err := c.Step()
		assertNoError(err, t, "Step()")
		if !state.Halted || registerValue(t, state, "f") != 9 {
			t.Fatalf("unexpected state %#v", state)
		}
		assertError(c.SetRegister("g", 1), t, "SetRegister(g)")

		state, err = c.Restart()
		assertNoError(err, t, "Restart()")
		if state.Halted || state.Count != 0 || state.Line != 0 {
			t.Fatalf("unexpected state after restart %#v", state)
		}

		prog, err := c.ListInstructions()
		assertNoError(err, t, "ListInstructions()")
		if len(prog.Instructions) != 7 || prog.Instructions[3].Text != "addr 1 2 3" {
			t.Fatalf("unexpected program %#v", prog)
		}
	})
}

func TestClientServer_load(t *testing.T) {
	withTestClient("sample", t, func(c service.Client) {
		_, err := c.CreateBreakpoint("write(d)")
		assertNoError(err, t, "CreateBreakpoint()")
		state, err := c.Load(protest.GetFixture(t, "unique").Path)
		assertNoError(err, t, "Load()")
		if state.IPRegister != 5 {
			t.Fatalf("expected ip register 5, got %d", state.IPRegister)
		}
		state = <-c.Continue()
		assertNoError(state.Err, t, "Continue()")
		if len(state.Breakpoints) != 1 || state.LastStep.Line != 0 {
			t.Fatalf("breakpoint not kept across load: %#v", state)
		}
		_, err = c.Load("does-not-exist.elf")
		assertError(err, t, "Load(missing)")
	})
}

func TestClientServer_detachClosesDisconnectChan(t *testing.T) {
	fixture := protest.GetFixture(t, "sample")
	disconnectChan := make(chan struct{})
	client := rpc2.NewClientFromConn(startServer(t, fixture.Path, disconnectChan))
	v, err := client.GetVersion()
	assertNoError(err, t, "GetVersion()")
	if v.APIVersion != 2 {
		t.Fatalf("unexpected API version %d", v.APIVersion)
	}
	assertNoError(client.Detach(), t, "Detach()")
	select {
	case <-disconnectChan:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect channel not closed")
	}
}
