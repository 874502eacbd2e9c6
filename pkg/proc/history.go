package proc

import (
	"fmt"

	"github.com/go-delve/elfdb/pkg/elfcode"
)

// History is the set of values observed in one register, in the order they
// were first observed. It is never bounded or evicted: it grows for as long
// as the program runs without being reloaded or reset.
type History struct {
	seen   map[int64]struct{}
	values []int64
}

// Record adds v to the history and returns true if it was not already
// present.
func (h *History) Record(v int64) bool {
	if _, ok := h.seen[v]; ok {
		return false
	}
	if h.seen == nil {
		h.seen = make(map[int64]struct{})
	}
	h.seen[v] = struct{}{}
	h.values = append(h.values, v)
	return true
}

// Contains returns true if v was recorded.
func (h *History) Contains(v int64) bool {
	_, ok := h.seen[v]
	return ok
}

// Len returns the number of distinct values recorded.
func (h *History) Len() int {
	return len(h.values)
}

// Values returns the recorded values in insertion order.
func (h *History) Values() []int64 {
	return append([]int64(nil), h.values...)
}

// Last returns the most recently recorded new value.
func (h *History) Last() (int64, bool) {
	if len(h.values) == 0 {
		return 0, false
	}
	return h.values[len(h.values)-1], true
}

// Tracker holds the observation history of every register.
type Tracker struct {
	regs [elfcode.NumRegisters]History
}

// NewTracker returns a tracker with an empty history. The contents of the
// registers before the first instruction are not observations.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset discards all history.
func (t *Tracker) Reset() {
	for i := range t.regs {
		t.regs[i] = History{}
	}
}

// Record adds value to the history of reg.
func (t *Tracker) Record(reg int, value int64) error {
	if reg < 0 || reg >= elfcode.NumRegisters {
		return fmt.Errorf("%w: %d", elfcode.ErrOutOfRange, reg)
	}
	t.regs[reg].Record(value)
	return nil
}

// IsUnique returns true if value has never been recorded for reg. It does
// not record value.
func (t *Tracker) IsUnique(reg int, value int64) bool {
	if reg < 0 || reg >= elfcode.NumRegisters {
		return false
	}
	return !t.regs[reg].Contains(value)
}

// History returns the history of reg, or nil if reg is not a register.
func (t *Tracker) History(reg int) *History {
	if reg < 0 || reg >= elfcode.NumRegisters {
		return nil
	}
	return &t.regs[reg]
}
