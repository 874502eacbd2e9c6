package breakexpr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-delve/elfdb/pkg/elfcode"
)

var (
	// ErrUnknownOperator matches, with errors.Is, a ParseError caused by an
	// expression starting with an unknown name.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrUnknownRegister matches, with errors.Is, a ParseError caused by a
	// register argument that is not a register label.
	ErrUnknownRegister = errors.New("unknown register")
)

// ErrorKind classifies parse errors.
type ErrorKind uint8

const (
	SyntaxError ErrorKind = iota
	UnknownOperatorError
	UnknownRegisterError
)

// ParseError is returned by Parse for malformed expressions.
type ParseError struct {
	Text     string
	Pos      int    // byte offset of the offending token
	Expected string // what the parser was looking for, may be empty
	Msg      string
	Kind     ErrorKind
}

func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("malformed breakpoint condition %q at %d: %s, expected %s", e.Text, e.Pos, e.Msg, e.Expected)
	}
	return fmt.Sprintf("malformed breakpoint condition %q at %d: %s", e.Text, e.Pos, e.Msg)
}

// Is makes errors.Is(err, ErrUnknownOperator) and
// errors.Is(err, ErrUnknownRegister) work on parse errors.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrUnknownOperator:
		return e.Kind == UnknownOperatorError
	case ErrUnknownRegister:
		return e.Kind == UnknownRegisterError
	}
	return false
}

// Options changes how Parse resolves register labels.
type Options struct {
	// IPRegister, if not negative, is the register the label "ip" refers to.
	IPRegister int
}

// Parse parses text using the six register labels a to f.
func Parse(text string) (Expr, error) {
	return ParseWithOptions(text, Options{IPRegister: -1})
}

// ParseWithOptions parses text, see Options.
func ParseWithOptions(text string, opts Options) (Expr, error) {
	p := &parser{lex: lexer{text: text}, opts: opts}
	p.next()
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(SyntaxError, "end of expression", "unexpected %s", p.tok)
	}
	return e, nil
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokLparen
	tokRparen
	tokComma
	tokIllegal
)

type token struct {
	kind tokenKind
	pos  int
	text string
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokIdent, tokInt, tokIllegal:
		return strconv.Quote(t.text)
	}
	return "'" + t.text + "'"
}

type lexer struct {
	text string
	off  int
}

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *lexer) scan() token {
	for l.off < len(l.text) && (l.text[l.off] == ' ' || l.text[l.off] == '\t') {
		l.off++
	}
	start := l.off
	if l.off >= len(l.text) {
		return token{kind: tokEOF, pos: start}
	}
	ch := l.text[l.off]
	switch {
	case ch == '(':
		l.off++
		return token{tokLparen, start, "("}
	case ch == ')':
		l.off++
		return token{tokRparen, start, ")"}
	case ch == ',':
		l.off++
		return token{tokComma, start, ","}
	case isLetter(ch):
		for l.off < len(l.text) && (isLetter(l.text[l.off]) || isDigit(l.text[l.off])) {
			l.off++
		}
		return token{tokIdent, start, l.text[start:l.off]}
	case isDigit(ch) || ch == '-' || ch == '+':
		l.off++
		for l.off < len(l.text) && (isDigit(l.text[l.off]) || isLetter(l.text[l.off])) {
			l.off++
		}
		return token{tokInt, start, l.text[start:l.off]}
	}
	l.off++
	return token{tokIllegal, start, l.text[start:l.off]}
}

type parser struct {
	lex  lexer
	tok  token
	opts Options
}

func (p *parser) next() {
	p.tok = p.lex.scan()
}

func (p *parser) errorf(kind ErrorKind, expected, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Text:     p.lex.text,
		Pos:      p.tok.pos,
		Expected: expected,
		Msg:      fmt.Sprintf(format, args...),
		Kind:     kind,
	}
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.tok.kind != kind {
		return p.errorf(SyntaxError, what, "unexpected %s", p.tok)
	}
	p.next()
	return nil
}

func (p *parser) parseExpr() (Expr, error) {
	switch p.tok.kind {
	case tokIdent:
	case tokEOF, tokRparen, tokComma:
		return nil, p.errorf(SyntaxError, "operator", "unexpected %s", p.tok)
	default:
		return nil, p.errorf(UnknownOperatorError, "", "unknown operator %s", p.tok)
	}
	name := p.tok
	switch name.text {
	case "line", "read", "write", "unique", "not", "all":
	default:
		if _, ok := parseCmpOp(name.text); !ok {
			return nil, p.errorf(UnknownOperatorError, "", "unknown operator %q", name.text)
		}
	}
	p.next()
	if err := p.expect(tokLparen, "'('"); err != nil {
		return nil, err
	}

	var e Expr
	switch name.text {
	case "line":
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		e = Line{N: int(n)}
	case "read", "write", "unique":
		reg, err := p.parseRegister()
		if err != nil {
			return nil, err
		}
		switch name.text {
		case "read":
			e = ReadReg{Reg: reg}
		case "write":
			e = WriteReg{Reg: reg}
		default:
			e = Unique{Reg: reg}
		}
	case "not":
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e = Not{X: x}
	case "all":
		var list []Expr
		for {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			list = append(list, x)
			if p.tok.kind != tokComma {
				break
			}
			p.next()
		}
		e = All{List: list}
	default:
		op, _ := parseCmpOp(name.text)
		reg, err := p.parseRegister()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokComma, "','"); err != nil {
			return nil, err
		}
		v, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		e = Cmp{Op: op, Reg: reg, Value: v}
	}

	if err := p.expect(tokRparen, "')'"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseInt() (int64, error) {
	if p.tok.kind != tokInt {
		return 0, p.errorf(SyntaxError, "integer", "unexpected %s", p.tok)
	}
	v, err := strconv.ParseInt(p.tok.text, 10, 64)
	if err != nil {
		return 0, p.errorf(SyntaxError, "integer", "bad integer literal %q", p.tok.text)
	}
	p.next()
	return v, nil
}

func (p *parser) parseRegister() (int, error) {
	if p.tok.kind != tokIdent {
		return 0, p.errorf(SyntaxError, "register", "unexpected %s", p.tok)
	}
	reg, ok := elfcode.RegisterIndex(p.tok.text)
	if !ok && p.tok.text == "ip" && p.opts.IPRegister >= 0 && p.opts.IPRegister < elfcode.NumRegisters {
		reg, ok = p.opts.IPRegister, true
	}
	if !ok {
		return 0, p.errorf(UnknownRegisterError, "", "unknown register %q", p.tok.text)
	}
	p.next()
	return reg, nil
}
