package breakexpr

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-delve/elfdb/pkg/elfcode"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Expr
	}{
		{"line(28)", Line{28}},
		{"read(a)", ReadReg{0}},
		{"write(f)", WriteReg{5}},
		{"unique(d)", Unique{3}},
		{"not(line(1))", Not{Line{1}}},
		{"eq(c, 10)", Cmp{Eq, 2, 10}},
		{"lt(a,-3)", Cmp{Lt, 0, -3}},
		{"lte(b, 0)", Cmp{Lte, 1, 0}},
		{"gt(e, 7)", Cmp{Gt, 4, 7}},
		{"gte(e, 7)", Cmp{Gte, 4, 7}},
		{"all(line(28), not(unique(d)))", All{[]Expr{Line{28}, Not{Unique{3}}}}},
		{"all(read(a))", All{[]Expr{ReadReg{0}}}},
		{"  all( write(b) ,eq(b,1) , line(3) )  ", All{[]Expr{WriteReg{1}, Cmp{Eq, 1, 1}, Line{3}}}},
	}

	for _, tc := range tests {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%q: expected %#v got %#v", tc.in, tc.want, got)
		}
		again, err := Parse(got.String())
		if err != nil {
			t.Errorf("%q: canonical form %q does not parse: %v", tc.in, got.String(), err)
			continue
		}
		if !reflect.DeepEqual(again, got) {
			t.Errorf("%q: canonical form %q parsed to %#v", tc.in, got.String(), again)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		kind ErrorKind
		pos  int
	}{
		{"foo(1)", UnknownOperatorError, 0},
		{"not(bar(a))", UnknownOperatorError, 4},
		{"read(g)", UnknownRegisterError, 5},
		{"eq(ip, 1)", UnknownRegisterError, 3},
		{"line(a)", SyntaxError, 5},
		{"line(1x)", SyntaxError, 5},
		{"line 1", SyntaxError, 5},
		{"line(1", SyntaxError, 6},
		{"eq(a 1)", SyntaxError, 5},
		{"all()", SyntaxError, 4},
		{"line(1))", SyntaxError, 7},
		{"", SyntaxError, 0},
		{"line(99999999999999999999)", SyntaxError, 5},
		{"(", UnknownOperatorError, 0},
		{"(1)", UnknownOperatorError, 0},
		{"12", UnknownOperatorError, 0},
		{"not(3)", UnknownOperatorError, 4},
		{"all(line(1),)", SyntaxError, 12},
	}

	for _, tc := range tests {
		_, err := Parse(tc.in)
		if err == nil {
			t.Errorf("%q: expected error", tc.in)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected *ParseError got %T", tc.in, err)
			continue
		}
		if perr.Kind != tc.kind {
			t.Errorf("%q: expected kind %d got %d (%v)", tc.in, tc.kind, perr.Kind, err)
		}
		if perr.Pos != tc.pos {
			t.Errorf("%q: expected position %d got %d (%v)", tc.in, tc.pos, perr.Pos, err)
		}
	}

	_, err := Parse("foo(1)")
	if !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
	if errors.Is(err, ErrUnknownRegister) {
		t.Errorf("unknown operator matched ErrUnknownRegister")
	}
	if _, err := Parse("(1)"); !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator for a parenthesized literal, got %v", err)
	}
	_, err = Parse("unique(z)")
	if !errors.Is(err, ErrUnknownRegister) {
		t.Errorf("expected ErrUnknownRegister, got %v", err)
	}
}

func TestParseIPAlias(t *testing.T) {
	e, err := ParseWithOptions("all(write(ip), gt(ip, 4))", Options{IPRegister: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := All{[]Expr{WriteReg{2}, Cmp{Gt, 2, 4}}}
	if !reflect.DeepEqual(e, want) {
		t.Fatalf("expected %#v got %#v", want, e)
	}
}

type fakeContext struct {
	line          int
	reads, writes elfcode.RegSet
	regs          elfcode.Registers
	unique        elfcode.RegSet
}

func (c *fakeContext) Line() int                    { return c.line }
func (c *fakeContext) Read(reg int) bool            { return c.reads.Has(reg) }
func (c *fakeContext) Written(reg int) bool         { return c.writes.Has(reg) }
func (c *fakeContext) Value(reg int) (int64, error) { return c.regs.Get(reg) }
func (c *fakeContext) Unique(reg int) bool          { return c.unique.Has(reg) }

func TestEval(t *testing.T) {
	ctx := &fakeContext{
		line:   28,
		reads:  elfcode.NewRegSet(1, 2),
		writes: elfcode.NewRegSet(3),
		regs:   elfcode.Registers{0, 5, 6, 11, 0, 0},
		unique: elfcode.NewRegSet(3),
	}

	tests := []struct {
		in   string
		want bool
	}{
		{"line(28)", true},
		{"line(27)", false},
		{"read(b)", true},
		{"read(d)", false},
		{"write(d)", true},
		{"write(b)", false},
		{"unique(d)", true},
		{"unique(b)", false},
		{"eq(d, 11)", true},
		{"eq(d, 12)", false},
		{"lt(b, 6)", true},
		{"lt(b, 5)", false},
		{"lte(b, 5)", true},
		{"gt(c, 5)", true},
		{"gt(c, 6)", false},
		{"gte(c, 6)", true},
		{"not(line(28))", false},
		{"all(line(28), not(unique(b)), write(d))", true},
		{"all(line(28), unique(b))", false},
		{"not(not(read(c)))", true},
	}

	for _, tc := range tests {
		e, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		got, err := Eval(e, ctx)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("%q: expected %v got %v", tc.in, tc.want, got)
		}
	}

	if v, _ := Eval(All{}, ctx); !v {
		t.Errorf("empty conjunction should be true")
	}
	if _, err := Eval(Cmp{Eq, 9, 0}, ctx); !errors.Is(err, elfcode.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestUniqueRegisters(t *testing.T) {
	e, err := Parse("all(unique(a), not(unique(e)), line(2))")
	if err != nil {
		t.Fatal(err)
	}
	got := UniqueRegisters(e)
	if !reflect.DeepEqual(got, []int{0, 4}) {
		t.Fatalf("expected [0 4] got %v", got)
	}
}
