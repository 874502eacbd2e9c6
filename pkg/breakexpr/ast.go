// Package breakexpr implements the breakpoint condition language.
//
// A condition is a predicate over a single executed instruction:
//
//	line(28)                  the instruction on line 28 was executed
//	read(a), write(b)         register a was read, register b was written
//	unique(d)                 d holds a value never seen in d before
//	eq(c, 10) lt lte gt gte   compare a register with an integer
//	not(x), all(x, y, ...)    negation and conjunction
//
// Parse turns the text into an Expr, Eval evaluates an Expr against a
// Context describing the step.
package breakexpr

import (
	"fmt"
	"strings"

	"github.com/go-delve/elfdb/pkg/elfcode"
)

// Expr is a parsed breakpoint condition. The set of implementations is
// closed: Line, ReadReg, WriteReg, Not, All, Unique and Cmp.
type Expr interface {
	// String returns the canonical text of the expression, Parse of the
	// result returns an equal Expr.
	String() string
	isExpr()
}

// Line is true when the executed line equals N.
type Line struct {
	N int
}

// ReadReg is true when the executed instruction read register Reg.
type ReadReg struct {
	Reg int
}

// WriteReg is true when the executed instruction wrote register Reg.
type WriteReg struct {
	Reg int
}

// Not negates X.
type Not struct {
	X Expr
}

// All is the conjunction of List. An empty list is true.
type All struct {
	List []Expr
}

// Unique is true when the value held by Reg after the step had never been
// observed in Reg before.
type Unique struct {
	Reg int
}

// CmpOp is a comparison operator.
type CmpOp uint8

const (
	Eq CmpOp = iota
	Lt
	Lte
	Gt
	Gte
)

var cmpOpNames = [...]string{Eq: "eq", Lt: "lt", Lte: "lte", Gt: "gt", Gte: "gte"}

func (op CmpOp) String() string {
	if int(op) >= len(cmpOpNames) {
		return fmt.Sprintf("CmpOp(%d)", uint8(op))
	}
	return cmpOpNames[op]
}

func parseCmpOp(name string) (CmpOp, bool) {
	for i := range cmpOpNames {
		if cmpOpNames[i] == name {
			return CmpOp(i), true
		}
	}
	return 0, false
}

// Cmp compares the post-step value of Reg against Value.
type Cmp struct {
	Op    CmpOp
	Reg   int
	Value int64
}

func (Line) isExpr()     {}
func (ReadReg) isExpr()  {}
func (WriteReg) isExpr() {}
func (Not) isExpr()      {}
func (All) isExpr()      {}
func (Unique) isExpr()   {}
func (Cmp) isExpr()      {}

func (e Line) String() string     { return fmt.Sprintf("line(%d)", e.N) }
func (e ReadReg) String() string  { return fmt.Sprintf("read(%s)", elfcode.RegisterName(e.Reg)) }
func (e WriteReg) String() string { return fmt.Sprintf("write(%s)", elfcode.RegisterName(e.Reg)) }
func (e Not) String() string      { return fmt.Sprintf("not(%s)", e.X) }
func (e Unique) String() string   { return fmt.Sprintf("unique(%s)", elfcode.RegisterName(e.Reg)) }

func (e All) String() string {
	parts := make([]string, len(e.List))
	for i := range e.List {
		parts[i] = e.List[i].String()
	}
	return "all(" + strings.Join(parts, ", ") + ")"
}

func (e Cmp) String() string {
	return fmt.Sprintf("%s(%s, %d)", e.Op, elfcode.RegisterName(e.Reg), e.Value)
}

// Walk calls fn on e and, depth first, on every sub-expression of e.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch e := e.(type) {
	case Not:
		Walk(e.X, fn)
	case All:
		for _, x := range e.List {
			Walk(x, fn)
		}
	}
}

// UniqueRegisters returns the registers named by unique terms in e, in the
// order they appear.
func UniqueRegisters(e Expr) []int {
	var r []int
	Walk(e, func(x Expr) {
		if u, ok := x.(Unique); ok {
			r = append(r, u.Reg)
		}
	})
	return r
}
