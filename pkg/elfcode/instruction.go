package elfcode

import (
	"fmt"
)

// Instruction is a decoded Elfcode instruction. A and B are inputs, their
// meaning (register index or immediate) depends on Op. C is always the
// destination register.
type Instruction struct {
	Op      OpCode
	A, B, C int64
}

func (inst Instruction) String() string {
	return fmt.Sprintf("%s %d %d %d", inst.Op, inst.A, inst.B, inst.C)
}

// Describe returns the set of registers inst reads and the set of registers
// it writes, without executing it.
func Describe(inst Instruction) (reads, writes RegSet) {
	info := opTable[inst.Op]
	if info.a == operandRegister {
		reads = reads.Add(regIndex(inst.A))
	}
	if info.b == operandRegister {
		reads = reads.Add(regIndex(inst.B))
	}
	writes = writes.Add(regIndex(inst.C))
	return reads, writes
}

// Execute applies inst to a copy of regs and returns the copy. The input
// register file is never modified.
func Execute(inst Instruction, regs Registers) (Registers, error) {
	if !inst.Op.Valid() {
		panic(fmt.Sprintf("elfcode: invalid opcode %d", uint8(inst.Op)))
	}
	info := opTable[inst.Op]

	a, err := operand(&regs, info.a, inst.A)
	if err != nil {
		return regs, err
	}
	b, err := operand(&regs, info.b, inst.B)
	if err != nil {
		return regs, err
	}

	var v int64
	switch inst.Op {
	case Addr, Addi:
		v = a + b
	case Mulr, Muli:
		v = a * b
	case Banr, Bani:
		v = a & b
	case Borr, Bori:
		v = a | b
	case Setr, Seti:
		v = a
	case Gtir, Gtri, Gtrr:
		v = boolToReg(a > b)
	case Eqir, Eqri, Eqrr:
		v = boolToReg(a == b)
	}

	out := regs
	if err := out.Set(regIndex(inst.C), v); err != nil {
		return regs, err
	}
	return out, nil
}

func operand(regs *Registers, kind operandKind, x int64) (int64, error) {
	switch kind {
	case operandRegister:
		return regs.Get(regIndex(x))
	case operandImmediate:
		return x, nil
	}
	return 0, nil
}

// regIndex converts an operand to a register index, mapping values that do
// not fit to -1 so that range checks reject them.
func regIndex(x int64) int {
	if x < 0 || x >= NumRegisters {
		return -1
	}
	return int(x)
}

func boolToReg(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// HumanString renders inst as an assignment, for example "d  = a + 5".
// The register ip is labeled "ip".
func (inst Instruction) HumanString(ip int) string {
	name := func(x int64) string {
		r := regIndex(x)
		if r >= 0 && r == ip {
			return "ip"
		}
		return RegisterName(r)
	}
	info := opTable[inst.Op]
	operandString := func(kind operandKind, x int64) string {
		if kind == operandRegister {
			return name(x)
		}
		return fmt.Sprint(x)
	}
	dst := fmt.Sprintf("%-2s", name(inst.C))
	if inst.Op == Setr || inst.Op == Seti {
		return fmt.Sprintf("%s = %s", dst, operandString(info.a, inst.A))
	}
	return fmt.Sprintf("%s = %s %s %s", dst, operandString(info.a, inst.A), info.infix, operandString(info.b, inst.B))
}
