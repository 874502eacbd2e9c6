package breakexpr

import "fmt"

// Context is the view of an executed instruction that conditions are
// evaluated against.
type Context interface {
	// Line returns the line of the executed instruction.
	Line() int
	// Read returns true if the instruction read register reg.
	Read(reg int) bool
	// Written returns true if the instruction wrote register reg.
	Written(reg int) bool
	// Value returns the value held by reg after the instruction.
	Value(reg int) (int64, error)
	// Unique returns true if the value held by reg after the instruction
	// had not been observed in reg before the instruction.
	Unique(reg int) bool
}

// Eval evaluates e against ctx. It has no side effects, errors are only
// returned for registers the context can not resolve.
func Eval(e Expr, ctx Context) (bool, error) {
	switch e := e.(type) {
	case Line:
		return ctx.Line() == e.N, nil
	case ReadReg:
		return ctx.Read(e.Reg), nil
	case WriteReg:
		return ctx.Written(e.Reg), nil
	case Not:
		v, err := Eval(e.X, ctx)
		return !v, err
	case All:
		for _, x := range e.List {
			v, err := Eval(x, ctx)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case Unique:
		return ctx.Unique(e.Reg), nil
	case Cmp:
		v, err := ctx.Value(e.Reg)
		if err != nil {
			return false, err
		}
		return compare(v, e.Op, e.Value), nil
	}
	panic(fmt.Sprintf("breakexpr: unknown expression %T", e))
}

func compare(actual int64, op CmpOp, expected int64) bool {
	switch op {
	case Eq:
		return actual == expected
	case Lt:
		return actual < expected
	case Lte:
		return actual <= expected
	case Gt:
		return actual > expected
	case Gte:
		return actual >= expected
	}
	return false
}
