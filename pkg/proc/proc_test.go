package proc

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-delve/elfdb/pkg/breakexpr"
	"github.com/go-delve/elfdb/pkg/elfcode"
)

func withTestTarget(t *testing.T, src string) *Target {
	t.Helper()
	prog, err := elfcode.ParseProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("could not parse program: %v", err)
	}
	tgt := NewTarget()
	tgt.SetProgram(prog)
	return tgt
}

func setBreakpoint(t *testing.T, tgt *Target, text string) *Breakpoint {
	t.Helper()
	bp, err := tgt.SetBreakpoint(text)
	if err != nil {
		t.Fatalf("SetBreakpoint(%q): %v", text, err)
	}
	return bp
}

func assertNoError(err error, t testing.TB, s string) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed assertion %s: %v", s, err)
	}
}

func bpIDs(bps []*Breakpoint) []int {
	r := []int{}
	for _, bp := range bps {
		r = append(r, bp.ID)
	}
	return r
}

const uniqueSource = `#ip 5
seti 3 0 3
seti 7 0 3
seti 3 0 3
seti 9 0 3
`

func TestTrackerUnique(t *testing.T) {
	tr := NewTracker()
	var got []bool
	for _, v := range []int64{3, 7, 3, 9} {
		got = append(got, tr.IsUnique(3, v))
		assertNoError(tr.Record(3, v), t, "Record")
	}
	want := []bool{true, true, false, true}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if vals := tr.History(3).Values(); fmt.Sprint(vals) != "[3 7 9]" {
		t.Fatalf("unexpected history %v", vals)
	}
	if last, _ := tr.History(3).Last(); last != 9 {
		t.Fatalf("expected last value 9 got %d", last)
	}
	if err := tr.Record(6, 1); !errors.Is(err, elfcode.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}
}

func TestStepUniqueVerdicts(t *testing.T) {
	tgt := withTestTarget(t, uniqueSource)
	var got []bool
	for i := 0; i < 4; i++ {
		s, err := tgt.Step()
		assertNoError(err, t, "Step")
		w := s.WriteList()
		if len(w) != 1 || w[0].Reg != 3 {
			t.Fatalf("unexpected writes %v", w)
		}
		got = append(got, w[0].Unique)
	}
	if fmt.Sprint(got) != "[true true false true]" {
		t.Fatalf("expected [true true false true] got %v", got)
	}
}

func TestStepUniqueZero(t *testing.T) {
	if !NewTracker().IsUnique(3, 0) {
		t.Fatal("zero reported as seen by an empty tracker")
	}
	tgt := withTestTarget(t, `#ip 5
seti 0 0 3
seti 7 0 3
seti 0 0 3
seti 9 0 3
`)
	var got []bool
	for i := 0; i < 4; i++ {
		s, err := tgt.Step()
		assertNoError(err, t, "Step")
		got = append(got, s.Unique(3))
	}
	if fmt.Sprint(got) != "[true true false true]" {
		t.Fatalf("expected [true true false true] got %v", got)
	}
	if vals := tgt.Tracker().History(3).Values(); fmt.Sprint(vals) != "[0 7 9]" {
		t.Fatalf("unexpected history %v", vals)
	}

	tgt.Reset()
	if tgt.Tracker().History(3).Len() != 0 {
		t.Fatalf("history not cleared by reset: %v", tgt.Tracker().History(3).Values())
	}
	s, err := tgt.Step()
	assertNoError(err, t, "Step")
	if !s.Unique(3) {
		t.Fatal("first write of 0 after reset not unique")
	}
}

func TestUniqueUnwritten(t *testing.T) {
	tgt := withTestTarget(t, uniqueSource)
	s, err := tgt.Step()
	assertNoError(err, t, "Step")
	// a is never written: its value is checked without being recorded
	if !s.Unique(0) || !s.Unique(0) {
		t.Fatal("unwritten register with an unseen value not unique")
	}
	if n := tgt.Tracker().History(0).Len(); n != 0 {
		t.Fatalf("checking an unwritten register recorded it: %v", tgt.Tracker().History(0).Values())
	}
	// the ip increment is observed on every step
	if !s.Unique(5) || s.Written(5) {
		t.Fatal("wrong verdicts for the ip register")
	}
	if vals := tgt.Tracker().History(5).Values(); fmt.Sprint(vals) != "[1]" {
		t.Fatalf("ip increment not recorded: %v", vals)
	}
}

func TestContinueUnique(t *testing.T) {
	tgt := withTestTarget(t, uniqueSource)
	bp := setBreakpoint(t, tgt, "unique(d)")

	var lines []int
	for {
		info, err := tgt.Continue()
		assertNoError(err, t, "Continue")
		if info.Reason == StopHalted {
			break
		}
		if info.Reason != StopBreakpoint {
			t.Fatalf("unexpected stop reason %s", info.Reason)
		}
		lines = append(lines, info.Step.Line())
		if tgt.State() == Halted {
			break
		}
	}
	// steps 1, 2 and 4 execute lines 0, 1 and 3
	if fmt.Sprint(lines) != "[0 1 3]" {
		t.Fatalf("expected breakpoint on lines [0 1 3] got %v", lines)
	}
	if bp.HitCount != 3 {
		t.Fatalf("expected 3 hits got %d", bp.HitCount)
	}
	if tgt.State() != Halted {
		t.Fatalf("expected halted state, got %s", tgt.State())
	}
}

func straightLineSource(n int) string {
	var buf strings.Builder
	buf.WriteString("#ip 0\n")
	for i := 0; i < n; i++ {
		buf.WriteString("addi 1 1 1\n")
	}
	return buf.String()
}

func TestContinueLine(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(40))
	setBreakpoint(t, tgt, "eq(c, 1)")
	bp := setBreakpoint(t, tgt, "line(28)")
	_, err := tgt.ClearBreakpoint(1)
	assertNoError(err, t, "ClearBreakpoint")

	info, err := tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Reason != StopBreakpoint {
		t.Fatalf("expected breakpoint stop got %s", info.Reason)
	}
	if ids := bpIDs(info.Breakpoints); fmt.Sprint(ids) != fmt.Sprint([]int{bp.ID}) {
		t.Fatalf("expected breakpoint %d got %v", bp.ID, ids)
	}
	if info.Step.Line() != 28 {
		t.Fatalf("expected stop after line 28 got %d", info.Step.Line())
	}
	regs := tgt.Registers()
	if regs[1] != 29 || regs[0] != 29 {
		t.Fatalf("expected registers after lines 0..28, got %v", regs)
	}
	if tgt.Count() != 29 || tgt.DistinctLines() != 29 {
		t.Fatalf("unexpected counters %d %d", tgt.Count(), tgt.DistinctLines())
	}
	if tgt.State() != Paused {
		t.Fatalf("expected paused got %s", tgt.State())
	}
}

func TestContinueMultipleBreakpoints(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(10))
	bp1 := setBreakpoint(t, tgt, "line(3)")
	setBreakpoint(t, tgt, "line(5)")
	bp3 := setBreakpoint(t, tgt, "all(write(b), gte(b, 4))")

	info, err := tgt.Continue()
	assertNoError(err, t, "Continue")
	if ids := bpIDs(info.Breakpoints); fmt.Sprint(ids) != fmt.Sprint([]int{bp1.ID, bp3.ID}) {
		t.Fatalf("expected breakpoints %d and %d got %v", bp1.ID, bp3.ID, ids)
	}

	_, err = tgt.ToggleBreakpoint(bp3.ID)
	assertNoError(err, t, "ToggleBreakpoint")
	info, err = tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Step.Line() != 5 {
		t.Fatalf("expected stop on line 5 got %d", info.Step.Line())
	}
}

func TestStepIgnoresBreakpoints(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(5))
	bp := setBreakpoint(t, tgt, "not(line(100))")
	for i := 0; i < 4; i++ {
		s, err := tgt.Step()
		assertNoError(err, t, "Step")
		if s.Line() != i {
			t.Fatalf("expected line %d got %d", i, s.Line())
		}
		if tgt.State() != Paused {
			t.Fatalf("expected paused got %s", tgt.State())
		}
		if tgt.StopReason != StopStepped {
			t.Fatalf("expected stepped got %s", tgt.StopReason)
		}
	}
	if bp.HitCount != 0 {
		t.Fatalf("step hit breakpoint %d times", bp.HitCount)
	}
}

func TestClearBreakpointTwice(t *testing.T) {
	tgt := NewTarget()
	for _, text := range []string{"line(1)", "read(a)", "write(b)"} {
		setBreakpoint(t, tgt, text)
	}
	_, err := tgt.ClearBreakpoint(2)
	assertNoError(err, t, "ClearBreakpoint")
	_, err = tgt.ClearBreakpoint(2)
	var nbp NoBreakpointError
	if !errors.As(err, &nbp) || nbp.ID != 2 {
		t.Fatalf("expected NoBreakpointError for 2, got %v", err)
	}
	if ids := bpIDs(tgt.Breakpoints()); fmt.Sprint(ids) != "[1 3]" {
		t.Fatalf("expected breakpoints [1 3] got %v", ids)
	}
	bp := setBreakpoint(t, tgt, "line(2)")
	if bp.ID != 4 {
		t.Fatalf("expected new breakpoint id 4 got %d", bp.ID)
	}
	last, err := tgt.ClearLastBreakpoint()
	assertNoError(err, t, "ClearLastBreakpoint")
	if last.ID != 4 {
		t.Fatalf("expected to remove breakpoint 4 got %d", last.ID)
	}
}

func TestSetBreakpointParseError(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(3))
	_, err := tgt.SetBreakpoint("foo(1)")
	if !errors.Is(err, breakexpr.ErrUnknownOperator) {
		t.Fatalf("expected unknown operator error got %v", err)
	}
	if len(tgt.Breakpoints()) != 0 {
		t.Fatalf("breakpoint table modified by failed SetBreakpoint")
	}
	bp := setBreakpoint(t, tgt, "eq(ip, 2)")
	if bp.Expr != (breakexpr.Cmp{Op: breakexpr.Eq, Reg: 0, Value: 2}) {
		t.Fatalf("ip alias not resolved: %#v", bp.Expr)
	}
}

func TestHalting(t *testing.T) {
	tgt := withTestTarget(t, "#ip 0\nseti 5 0 1\naddi 0 5 0\n")
	_, err := tgt.Step()
	assertNoError(err, t, "Step")
	s, err := tgt.Step()
	assertNoError(err, t, "Step")
	if s.Line() != 1 {
		t.Fatalf("expected line 1 got %d", s.Line())
	}
	if tgt.State() != Halted {
		t.Fatalf("expected halted got %s", tgt.State())
	}

	regs := tgt.Registers()
	count := tgt.Count()
	if _, err := tgt.Step(); err != ErrProcessHalted {
		t.Fatalf("expected ErrProcessHalted from Step got %v", err)
	}
	if _, err := tgt.Continue(); err != ErrProcessHalted {
		t.Fatalf("expected ErrProcessHalted from Continue got %v", err)
	}
	if tgt.Registers() != regs || tgt.Count() != count {
		t.Fatalf("halted target modified: %v %d", tgt.Registers(), tgt.Count())
	}

	tgt.Reset()
	if tgt.State() != Paused || tgt.Registers() != (elfcode.Registers{}) {
		t.Fatalf("reset did not restart the program: %s %v", tgt.State(), tgt.Registers())
	}
}

func TestContinueToHalt(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(3))
	info, err := tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Reason != StopHalted || len(info.Breakpoints) != 0 {
		t.Fatalf("expected halt without breakpoints got %s %v", info.Reason, info.Breakpoints)
	}
	if tgt.State() != Halted {
		t.Fatalf("expected halted got %s", tgt.State())
	}
	if r := tgt.Registers(); r[1] != 3 {
		t.Fatalf("expected b=3 got %v", r)
	}
}

func TestManualStop(t *testing.T) {
	// line 0 increments b, line 1 jumps back to line 0
	tgt := withTestTarget(t, "#ip 0\naddi 1 1 1\nseti -1 0 0\n")
	setBreakpoint(t, tgt, "eq(b, -1)")

	type result struct {
		info *StopInfo
		err  error
	}
	done := make(chan result)
	go func() {
		info, err := tgt.Continue()
		done <- result{info, err}
	}()

	deadline := time.Now().Add(10 * time.Second)
	for tgt.State() != Running {
		if time.Now().After(deadline) {
			t.Fatal("target never started running")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	assertNoError(tgt.RequestManualStop(), t, "RequestManualStop")

	var res result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("continue did not stop")
	}
	assertNoError(res.err, t, "Continue")
	if res.info.Reason != StopManual || len(res.info.Breakpoints) != 0 {
		t.Fatalf("expected manual stop without breakpoints got %s %v", res.info.Reason, res.info.Breakpoints)
	}
	if tgt.State() != Paused {
		t.Fatalf("expected paused got %s", tgt.State())
	}
	// every executed instruction was fully applied
	if b := tgt.Registers()[1]; uint64(b) != (tgt.Count()+1)/2 {
		t.Fatalf("b=%d after %d instructions", b, tgt.Count())
	}
	if tgt.CheckAndClearManualStopRequest() {
		t.Fatal("manual stop request was not consumed")
	}
}

func TestRequestManualStopWhilePaused(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(5))
	assertNoError(tgt.RequestManualStop(), t, "RequestManualStop")
	info, err := tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Reason != StopHalted {
		t.Fatalf("stale stop request stopped execution: %s", info.Reason)
	}
}

func TestRequestManualStopBeforeContinue(t *testing.T) {
	tgt := withTestTarget(t, straightLineSource(5))
	tgt.PrepareContinue()
	assertNoError(tgt.RequestManualStop(), t, "RequestManualStop")
	info, err := tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Reason != StopManual || tgt.Count() != 0 {
		t.Fatalf("expected manual stop before the first instruction got %s after %d", info.Reason, tgt.Count())
	}

	// the request was consumed by the first Continue
	info, err = tgt.Continue()
	assertNoError(err, t, "Continue")
	if info.Reason != StopHalted {
		t.Fatalf("stop request applied twice: %s", info.Reason)
	}
}

func TestSetRegister(t *testing.T) {
	tgt := withTestTarget(t, uniqueSource)
	assertNoError(tgt.SetRegister(3, 7), t, "SetRegister")
	if tgt.Registers()[3] != 7 {
		t.Fatalf("register not written: %v", tgt.Registers())
	}
	if tgt.Tracker().IsUnique(3, 7) {
		t.Fatalf("value set by the user not recorded")
	}
	if err := tgt.SetRegister(6, 1); !errors.Is(err, elfcode.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}
}

func TestNoProgram(t *testing.T) {
	tgt := NewTarget()
	if _, err := tgt.Step(); err != ErrNoProgram {
		t.Fatalf("expected ErrNoProgram got %v", err)
	}
	if _, err := tgt.Continue(); err != ErrNoProgram {
		t.Fatalf("expected ErrNoProgram got %v", err)
	}
}

func TestEvalCondition(t *testing.T) {
	tgt := withTestTarget(t, uniqueSource)
	if _, err := tgt.EvalCondition("line(0)"); !errors.Is(err, ErrNoStep) {
		t.Fatalf("expected ErrNoStep got %v", err)
	}
	_, err := tgt.Step()
	assertNoError(err, t, "Step()")

	ok, err := tgt.EvalCondition("all(line(0), write(d), unique(d), eq(d, 3), not(read(a)))")
	assertNoError(err, t, "EvalCondition()")
	if !ok {
		t.Fatalf("condition should hold after the first step")
	}
	if ok, _ := tgt.EvalCondition("write(ip)"); ok {
		t.Fatalf("ip increment reported as a write")
	}
	if _, err := tgt.EvalCondition("line(x)"); err == nil {
		t.Fatalf("expected parse error")
	}
	if n := tgt.Tracker().History(3).Len(); n != 1 {
		t.Fatalf("evaluation modified the history of d: %v", tgt.Tracker().History(3).Values())
	}
}
