package proc

import (
	"fmt"

	"github.com/go-delve/elfdb/pkg/breakexpr"
)

// Breakpoint is a condition that stops Continue when it evaluates true
// after an instruction.
type Breakpoint struct {
	ID       int            // unique identifier, never reused
	Text     string         // condition as typed by the user
	Expr     breakexpr.Expr // parsed condition
	Enabled  bool
	HitCount uint64 // number of times the breakpoint stopped execution
}

func (bp *Breakpoint) String() string {
	return fmt.Sprintf("Breakpoint %d %s", bp.ID, bp.Expr)
}

// NoBreakpointError is returned when trying to
// clear a breakpoint that does not exist.
type NoBreakpointError struct {
	ID int
}

func (nbp NoBreakpointError) Error() string {
	return fmt.Sprintf("no breakpoint with id %d", nbp.ID)
}

// BreakpointMap holds the breakpoints of a target in creation order.
type BreakpointMap struct {
	list   []*Breakpoint
	lastID int
}

// Add parses text and stores a new enabled breakpoint.
func (bpmap *BreakpointMap) Add(text string, opts breakexpr.Options) (*Breakpoint, error) {
	expr, err := breakexpr.ParseWithOptions(text, opts)
	if err != nil {
		return nil, err
	}
	bpmap.lastID++
	bp := &Breakpoint{ID: bpmap.lastID, Text: text, Expr: expr, Enabled: true}
	bpmap.list = append(bpmap.list, bp)
	return bp, nil
}

// Find returns the breakpoint with the given id.
func (bpmap *BreakpointMap) Find(id int) (*Breakpoint, bool) {
	for _, bp := range bpmap.list {
		if bp.ID == id {
			return bp, true
		}
	}
	return nil, false
}

// Remove deletes the breakpoint with the given id, the other breakpoints
// keep their ids.
func (bpmap *BreakpointMap) Remove(id int) (*Breakpoint, error) {
	for i, bp := range bpmap.list {
		if bp.ID == id {
			copy(bpmap.list[i:], bpmap.list[i+1:])
			bpmap.list[len(bpmap.list)-1] = nil
			bpmap.list = bpmap.list[:len(bpmap.list)-1]
			return bp, nil
		}
	}
	return nil, NoBreakpointError{ID: id}
}

// Last returns the most recently created breakpoint still present.
func (bpmap *BreakpointMap) Last() (*Breakpoint, bool) {
	if len(bpmap.list) == 0 {
		return nil, false
	}
	return bpmap.list[len(bpmap.list)-1], true
}

// List returns the breakpoints in creation order.
func (bpmap *BreakpointMap) List() []*Breakpoint {
	return append([]*Breakpoint(nil), bpmap.list...)
}

// evaluate returns the enabled breakpoints whose condition is true for s.
// Every enabled breakpoint is evaluated, so all of them are reported when
// more than one fires.
func (bpmap *BreakpointMap) evaluate(s *StepContext) ([]*Breakpoint, error) {
	var fired []*Breakpoint
	for _, bp := range bpmap.list {
		if !bp.Enabled {
			continue
		}
		ok, err := breakexpr.Eval(bp.Expr, s)
		if err != nil {
			return nil, fmt.Errorf("error evaluating breakpoint %d: %w", bp.ID, err)
		}
		if ok {
			fired = append(fired, bp)
		}
	}
	return fired, nil
}

func (bpmap *BreakpointMap) resetHitCounts() {
	for _, bp := range bpmap.list {
		bp.HitCount = 0
	}
}
