package colorize

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/go-delve/elfdb/pkg/elfcode"
)

// Style describes the style of a chunk of text.
type Style uint8

const (
	NormalStyle Style = iota
	KeywordStyle
	StringStyle
	NumberStyle
	CommentStyle
	LineNoStyle
	ArrowStyle
	TabStyle
)

// Print prints to out a syntax highlighted version of the Elfcode listing
// read from reader, between lines startLine and endLine.
// Lines are numbered from firstLine, the listing of a program passes 0 so
// that line numbers match instruction indices.
func Print(out io.Writer, reader io.Reader, firstLine, startLine, endLine, arrowLine int, colorEscapes map[Style]string, altTabStr string) error {
	buf, err := ioutil.ReadAll(reader)
	if err != nil {
		return err
	}

	w := &lineWriter{
		w:            out,
		lineRange:    [2]int{startLine, endLine},
		arrowLine:    arrowLine,
		lineno:       firstLine - 1,
		colorEscapes: colorEscapes,
	}
	if len(altTabStr) > 0 {
		w.tabBytes = []byte(altTabStr)
	} else {
		w.tabBytes = []byte("\t")
	}

	toks := tokenize(buf)

	flush := func(start, end int, style Style) {
		if start < end {
			w.Write(style, buf[start:end], end == len(buf))
		}
	}

	cur := 0
	for _, tok := range toks {
		flush(cur, tok.start, NormalStyle)
		flush(tok.start, tok.end, tok.style)
		cur = tok.end
	}
	if cur != len(buf) {
		flush(cur, len(buf), NormalStyle)
	}

	return nil
}

type colorTok struct {
	style      Style
	start, end int
}

// tokenize finds directives, opcodes and integer literals in buf.
// Tokens are returned sorted by position.
func tokenize(buf []byte) []colorTok {
	toks := []colorTok{}
	lineStart := true
	for i := 0; i < len(buf); {
		c := buf[i]
		switch {
		case c == '\n':
			lineStart = true
			i++
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			end := i
			for end < len(buf) && buf[end] != '\n' {
				end++
			}
			toks = append(toks, colorTok{CommentStyle, i, end})
			i = end
		case isDigit(c) || (c == '-' && i+1 < len(buf) && isDigit(buf[i+1])):
			end := i + 1
			for end < len(buf) && isDigit(buf[end]) {
				end++
			}
			toks = append(toks, colorTok{NumberStyle, i, end})
			lineStart = false
			i = end
		case isLetter(c):
			end := i
			for end < len(buf) && isLetter(buf[end]) {
				end++
			}
			if _, isop := elfcode.ParseOpCode(string(buf[i:end])); isop && lineStart {
				toks = append(toks, colorTok{KeywordStyle, i, end})
			}
			lineStart = false
			i = end
		default:
			lineStart = false
			i++
		}
	}
	return toks
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type lineWriter struct {
	w         io.Writer
	lineRange [2]int
	arrowLine int

	curStyle Style
	started  bool
	lineno   int

	colorEscapes map[Style]string

	tabBytes []byte
}

func (w *lineWriter) style(style Style) {
	if w.colorEscapes == nil {
		return
	}
	esc := w.colorEscapes[style]
	if esc == "" {
		esc = w.colorEscapes[NormalStyle]
	}
	fmt.Fprintf(w.w, "%s", esc)
}

func (w *lineWriter) inrange() bool {
	lno := w.lineno
	if !w.started {
		lno = w.lineno + 1
	}
	return lno >= w.lineRange[0] && lno < w.lineRange[1]
}

func (w *lineWriter) nl() {
	w.lineno++
	if !w.inrange() || !w.started {
		return
	}
	w.style(ArrowStyle)
	if w.lineno == w.arrowLine {
		fmt.Fprintf(w.w, "=>")
	} else {
		fmt.Fprintf(w.w, "  ")
	}
	w.style(LineNoStyle)
	fmt.Fprintf(w.w, "%4d:\t", w.lineno)
	w.style(w.curStyle)
}

func (w *lineWriter) writeInternal(style Style, data []byte) {
	if !w.inrange() {
		return
	}

	if !w.started {
		w.started = true
		w.curStyle = style
		w.nl()
	} else if w.curStyle != style {
		w.curStyle = style
		w.style(w.curStyle)
	}

	w.w.Write(data)
}

func (w *lineWriter) Write(style Style, data []byte, last bool) {
	cur := 0
	for i := range data {
		switch data[i] {
		case '\n':
			if last && i == len(data)-1 {
				w.writeInternal(style, data[cur:i])
				if w.curStyle != NormalStyle {
					w.style(NormalStyle)
				}
				if w.inrange() {
					w.w.Write([]byte{'\n'})
				}
				last = false
			} else {
				w.writeInternal(style, data[cur:i+1])
				w.nl()
			}
			cur = i + 1
		case '\t':
			w.writeInternal(style, data[cur:i])
			w.writeInternal(TabStyle, w.tabBytes)
			cur = i + 1
		}
	}
	if cur < len(data) {
		w.writeInternal(style, data[cur:])
	}
	if last {
		if w.curStyle != NormalStyle {
			w.style(NormalStyle)
		}
		if w.inrange() {
			w.w.Write([]byte{'\n'})
		}
	}
}
