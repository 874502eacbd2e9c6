package elfcode

import "fmt"

// OpCode is an Elfcode operation.
type OpCode uint8

const (
	Addr OpCode = iota
	Addi
	Mulr
	Muli
	Banr
	Bani
	Borr
	Bori
	Setr
	Seti
	Gtir
	Gtri
	Gtrr
	Eqir
	Eqri
	Eqrr
	numOpCodes
)

// operandKind describes how an input operand is interpreted.
type operandKind uint8

const (
	operandIgnored operandKind = iota
	operandRegister
	operandImmediate
)

type opInfo struct {
	name  string
	infix string
	a, b  operandKind
}

var opTable = [numOpCodes]opInfo{
	Addr: {"addr", "+", operandRegister, operandRegister},
	Addi: {"addi", "+", operandRegister, operandImmediate},
	Mulr: {"mulr", "*", operandRegister, operandRegister},
	Muli: {"muli", "*", operandRegister, operandImmediate},
	Banr: {"banr", "&", operandRegister, operandRegister},
	Bani: {"bani", "&", operandRegister, operandImmediate},
	Borr: {"borr", "|", operandRegister, operandRegister},
	Bori: {"bori", "|", operandRegister, operandImmediate},
	Setr: {"setr", "", operandRegister, operandIgnored},
	Seti: {"seti", "", operandImmediate, operandIgnored},
	Gtir: {"gtir", ">", operandImmediate, operandRegister},
	Gtri: {"gtri", ">", operandRegister, operandImmediate},
	Gtrr: {"gtrr", ">", operandRegister, operandRegister},
	Eqir: {"eqir", "==", operandImmediate, operandRegister},
	Eqri: {"eqri", "==", operandRegister, operandImmediate},
	Eqrr: {"eqrr", "==", operandRegister, operandRegister},
}

func (op OpCode) String() string {
	if op >= numOpCodes {
		return fmt.Sprintf("OpCode(%d)", uint8(op))
	}
	return opTable[op].name
}

// Valid returns true if op is one of the sixteen Elfcode operations.
func (op OpCode) Valid() bool {
	return op < numOpCodes
}

// Infix returns the operator symbol used when rendering op as an
// assignment, for example "+" for addr.
func (op OpCode) Infix() string {
	return opTable[op].infix
}

// ParseOpCode returns the operation with the given mnemonic.
func ParseOpCode(name string) (OpCode, bool) {
	for i := range opTable {
		if opTable[i].name == name {
			return OpCode(i), true
		}
	}
	return 0, false
}

// OpCodes returns all operations in table order.
func OpCodes() []OpCode {
	r := make([]OpCode, numOpCodes)
	for i := range r {
		r[i] = OpCode(i)
	}
	return r
}
