package elfcode

import (
	"errors"
	"strings"
	"testing"
)

func TestExecute(t *testing.T) {
	initial := Registers{3, 5, 7, 0, 0, 9}

	tests := []struct {
		inst Instruction
		want int64
	}{
		{Instruction{Addr, 0, 1, 3}, 8},
		{Instruction{Addi, 0, 10, 3}, 13},
		{Instruction{Mulr, 1, 2, 3}, 35},
		{Instruction{Muli, 1, 4, 3}, 20},
		{Instruction{Banr, 1, 2, 3}, 5 & 7},
		{Instruction{Bani, 2, 2, 3}, 7 & 2},
		{Instruction{Borr, 0, 1, 3}, 3 | 5},
		{Instruction{Bori, 0, 8, 3}, 3 | 8},
		{Instruction{Setr, 5, 100, 3}, 9},
		{Instruction{Seti, 42, 100, 3}, 42},
		{Instruction{Gtir, 6, 1, 3}, 1},
		{Instruction{Gtir, 5, 1, 3}, 0},
		{Instruction{Gtri, 2, 6, 3}, 1},
		{Instruction{Gtri, 2, 7, 3}, 0},
		{Instruction{Gtrr, 2, 1, 3}, 1},
		{Instruction{Gtrr, 1, 2, 3}, 0},
		{Instruction{Eqir, 5, 1, 3}, 1},
		{Instruction{Eqir, 4, 1, 3}, 0},
		{Instruction{Eqri, 0, 3, 3}, 1},
		{Instruction{Eqri, 0, 4, 3}, 0},
		{Instruction{Eqrr, 3, 4, 3}, 1},
		{Instruction{Eqrr, 0, 1, 3}, 0},
	}

	for _, tc := range tests {
		got, err := Execute(tc.inst, initial)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.inst, err)
		}
		if got[3] != tc.want {
			t.Errorf("%v: expected d=%d got %d", tc.inst, tc.want, got[3])
		}
		for i := range got {
			if i != 3 && got[i] != initial[i] {
				t.Errorf("%v: register %s changed from %d to %d", tc.inst, RegisterName(i), initial[i], got[i])
			}
		}
	}
}

func TestExecuteDoesNotModifyInput(t *testing.T) {
	regs := Registers{1, 2, 3, 4, 5, 6}
	out, err := Execute(Instruction{Seti, 99, 0, 0}, regs)
	if err != nil {
		t.Fatal(err)
	}
	if regs[0] != 1 {
		t.Fatalf("input register file modified: %v", regs)
	}
	if out[0] != 99 {
		t.Fatalf("expected a=99 got %v", out)
	}
}

func TestExecuteOutOfRange(t *testing.T) {
	regs := Registers{}
	_, err := Execute(Instruction{Addr, 7, 0, 1}, regs)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	_, err = Execute(Instruction{Seti, 1, 0, 6}, regs)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for destination, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		inst          Instruction
		reads, writes []int
	}{
		{Instruction{Seti, 5, 0, 3}, nil, []int{3}},
		{Instruction{Addr, 1, 2, 0}, []int{1, 2}, []int{0}},
		{Instruction{Addi, 1, 2, 0}, []int{1}, []int{0}},
		{Instruction{Mulr, 4, 4, 4}, []int{4}, []int{4}},
		{Instruction{Muli, 4, 4, 5}, []int{4}, []int{5}},
		{Instruction{Banr, 0, 5, 1}, []int{0, 5}, []int{1}},
		{Instruction{Bani, 0, 5, 1}, []int{0}, []int{1}},
		{Instruction{Borr, 2, 3, 1}, []int{2, 3}, []int{1}},
		{Instruction{Bori, 2, 3, 1}, []int{2}, []int{1}},
		{Instruction{Setr, 2, 3, 1}, []int{2}, []int{1}},
		{Instruction{Gtir, 2, 3, 1}, []int{3}, []int{1}},
		{Instruction{Gtri, 2, 3, 1}, []int{2}, []int{1}},
		{Instruction{Gtrr, 2, 3, 1}, []int{2, 3}, []int{1}},
		{Instruction{Eqir, 2, 3, 1}, []int{3}, []int{1}},
		{Instruction{Eqri, 2, 3, 1}, []int{2}, []int{1}},
		{Instruction{Eqrr, 2, 3, 1}, []int{2, 3}, []int{1}},
	}

	for _, tc := range tests {
		reads, writes := Describe(tc.inst)
		if reads != NewRegSet(tc.reads...) {
			t.Errorf("%v: expected reads %v got %v", tc.inst, NewRegSet(tc.reads...), reads)
		}
		if writes != NewRegSet(tc.writes...) {
			t.Errorf("%v: expected writes %v got %v", tc.inst, NewRegSet(tc.writes...), writes)
		}
	}
}

func TestRegisters(t *testing.T) {
	var regs Registers
	if err := regs.Set(5, 10); err != nil {
		t.Fatal(err)
	}
	if v, _ := regs.Get(5); v != 10 {
		t.Fatalf("expected 10 got %d", v)
	}
	if _, err := regs.Get(6); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}
	if err := regs.Set(-1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange got %v", err)
	}
	if i, ok := RegisterIndex("d"); !ok || i != 3 {
		t.Fatalf("expected d to be register 3, got %d %v", i, ok)
	}
	if _, ok := RegisterIndex("g"); ok {
		t.Fatalf("g is not a register")
	}
}

const sampleProgram = `#ip 0
seti 5 0 1
seti 6 0 2
addi 0 1 0
addr 1 2 3
setr 1 0 0
seti 8 0 4
seti 9 0 5
`

func TestParseProgram(t *testing.T) {
	p, err := ParseProgram(strings.NewReader(sampleProgram))
	if err != nil {
		t.Fatal(err)
	}
	if p.IP != 0 {
		t.Fatalf("expected ip register 0, got %d", p.IP)
	}
	if p.Len() != 7 {
		t.Fatalf("expected 7 instructions, got %d", p.Len())
	}
	if p.Instructions[3] != (Instruction{Addr, 1, 2, 3}) {
		t.Fatalf("bad instruction 3: %v", p.Instructions[3])
	}

	for _, bad := range []string{"#ip", "#ip 9", "addx 1 2 3", "addi 1 2", "addi 1 x 3", "addr 9 1 1", "seti 1 1 6"} {
		_, err := ParseProgram(strings.NewReader(bad))
		if err == nil {
			t.Errorf("expected error parsing %q", bad)
			continue
		}
		var serr *ProgramSyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("expected ProgramSyntaxError for %q, got %T", bad, err)
		}
	}
}

func TestProgramExec(t *testing.T) {
	p, err := ParseProgram(strings.NewReader(sampleProgram))
	if err != nil {
		t.Fatal(err)
	}
	var regs Registers
	var lines []int
	for {
		next, line, err := p.Exec(regs)
		if err == ErrHalted {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		lines = append(lines, line)
		regs = next
	}
	// addi 0 1 0 at line 2 jumps over line 3, setr 1 0 0 sets ip to 5 and
	// the increment moves it to 6.
	want := []int{0, 1, 2, 4, 6}
	if len(lines) != len(want) {
		t.Fatalf("expected lines %v got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("expected lines %v got %v", want, lines)
		}
	}
	if regs != (Registers{7, 5, 6, 0, 0, 9}) {
		t.Fatalf("unexpected final registers %v", regs)
	}
}

func TestHumanString(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{Instruction{Addr, 1, 2, 3}, "d  = b + c"},
		{Instruction{Addi, 0, 1, 0}, "ip = ip + 1"},
		{Instruction{Seti, 5, 0, 1}, "b  = 5"},
		{Instruction{Gtir, 5, 1, 4}, "e  = 5 > b"},
		{Instruction{Eqrr, 3, 4, 4}, "e  = d == e"},
	}
	for _, tc := range tests {
		if got := tc.inst.HumanString(0); got != tc.want {
			t.Errorf("%v: expected %q got %q", tc.inst, tc.want, got)
		}
	}
}

func TestSourceLines(t *testing.T) {
	p, err := ParseProgram(strings.NewReader("#ip 0\n\nseti 5 0 1\n\nseti 6 0 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.SourceLine(0) != 3 || p.SourceLine(1) != 5 {
		t.Fatalf("unexpected source lines %v", p.SourceLines)
	}
	if line, ok := p.LineForSource(5); !ok || line != 1 {
		t.Fatalf("expected line 1 for source line 5, got %d %v", line, ok)
	}
	if _, ok := p.LineForSource(4); ok {
		t.Fatalf("blank source line mapped to an instruction")
	}
}
