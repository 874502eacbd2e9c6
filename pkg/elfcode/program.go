package elfcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Program is a loaded Elfcode program: the instruction list and the index of
// the register bound to the instruction pointer.
type Program struct {
	Instructions []Instruction
	IP           int
	// SourceLines holds the 1-based line of the program text each
	// instruction was read from. Empty for programs not built by
	// ParseProgram.
	SourceLines []int
}

// SourceLine returns the line of program text that holds the instruction
// on line.
func (p *Program) SourceLine(line int) int {
	if line >= 0 && line < len(p.SourceLines) {
		return p.SourceLines[line]
	}
	return line + 1
}

// LineForSource returns the instruction read from the given line of program
// text.
func (p *Program) LineForSource(n int) (int, bool) {
	if len(p.SourceLines) == 0 {
		if n < 1 || n > len(p.Instructions) {
			return -1, false
		}
		return n - 1, true
	}
	for line, src := range p.SourceLines {
		if src == n {
			return line, true
		}
	}
	return -1, false
}

// Len returns the number of instructions in p.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Fetch returns the line the ip register points at and the instruction on
// that line. If the line is outside the program ok is false: the program
// has halted.
func (p *Program) Fetch(regs *Registers) (line int, inst Instruction, ok bool) {
	ip, err := regs.Get(p.IP)
	if err != nil {
		return -1, Instruction{}, false
	}
	if ip < 0 || ip >= int64(len(p.Instructions)) {
		return int(ip), Instruction{}, false
	}
	return int(ip), p.Instructions[ip], true
}

// Exec executes the instruction at the current line and advances the ip
// register. The value the instruction left in the ip register, including
// one it wrote itself, is incremented by one.
// The returned snapshot is independent of regs.
func (p *Program) Exec(regs Registers) (next Registers, line int, err error) {
	line, inst, ok := p.Fetch(&regs)
	if !ok {
		return regs, line, ErrHalted
	}
	next, err = Execute(inst, regs)
	if err != nil {
		return regs, line, err
	}
	next[p.IP]++
	return next, line, nil
}

// ErrHalted is returned by Exec when the ip register points outside the
// program.
var ErrHalted = errors.New("program halted")

// ProgramSyntaxError describes a malformed line of program text.
type ProgramSyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *ProgramSyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// ParseProgram reads program text: an optional "#ip N" directive followed by
// one instruction per line ("addi 1 2 3"). Blank lines are skipped.
func ParseProgram(r io.Reader) (*Program, error) {
	p := &Program{}
	s := bufio.NewScanner(r)
	n := 0
	for s.Scan() {
		n++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if fields[0] == "#ip" {
			if len(fields) != 2 {
				return nil, &ProgramSyntaxError{n, text, "expected argument to #ip"}
			}
			ip, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ProgramSyntaxError{n, text, "bad argument to #ip"}
			}
			if ip < 0 || ip >= NumRegisters {
				return nil, &ProgramSyntaxError{n, text, "ip register out of range"}
			}
			p.IP = ip
			continue
		}
		inst, err := parseInstruction(fields)
		if err != nil {
			return nil, &ProgramSyntaxError{n, text, err.Error()}
		}
		p.Instructions = append(p.Instructions, inst)
		p.SourceLines = append(p.SourceLines, n)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseInstruction(fields []string) (Instruction, error) {
	if len(fields) != 4 {
		return Instruction{}, fmt.Errorf("expected opcode and three operands")
	}
	op, ok := ParseOpCode(fields[0])
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode %s", fields[0])
	}
	var operands [3]int64
	for i := range operands {
		v, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			return Instruction{}, fmt.Errorf("bad operand %s", fields[i+1])
		}
		operands[i] = v
	}
	inst := Instruction{Op: op, A: operands[0], B: operands[1], C: operands[2]}
	if regIndex(inst.C) < 0 {
		return Instruction{}, fmt.Errorf("destination register %d out of range", inst.C)
	}
	info := opTable[op]
	if info.a == operandRegister && regIndex(inst.A) < 0 {
		return Instruction{}, fmt.Errorf("register operand %d out of range", inst.A)
	}
	if info.b == operandRegister && regIndex(inst.B) < 0 {
		return Instruction{}, fmt.Errorf("register operand %d out of range", inst.B)
	}
	return inst, nil
}

// LoadProgram reads a program from the file at path.
func LoadProgram(path string) (*Program, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseProgram(fh)
}
