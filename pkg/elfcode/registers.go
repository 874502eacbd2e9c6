package elfcode

import (
	"errors"
	"fmt"
	"strings"
)

// NumRegisters is the number of registers of the machine.
const NumRegisters = 6

// ErrOutOfRange is returned when a register index is outside [0, NumRegisters).
var ErrOutOfRange = errors.New("register index out of range")

var registerNames = [NumRegisters]string{"a", "b", "c", "d", "e", "f"}

// Registers is the register file of the machine. It is a value type, copying
// it produces an independent snapshot.
type Registers [NumRegisters]int64

// Get returns the value of register i.
func (r *Registers) Get(i int) (int64, error) {
	if i < 0 || i >= NumRegisters {
		return 0, outOfRange(i)
	}
	return r[i], nil
}

// Set writes v to register i.
func (r *Registers) Set(i int, v int64) error {
	if i < 0 || i >= NumRegisters {
		return outOfRange(i)
	}
	r[i] = v
	return nil
}

func (r Registers) String() string {
	var buf strings.Builder
	for i, v := range r {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(&buf, "%s=%d", registerNames[i], v)
	}
	return buf.String()
}

func outOfRange(i int) error {
	return fmt.Errorf("%w: %d", ErrOutOfRange, i)
}

// RegisterName returns the conventional label of register i ("a".."f").
func RegisterName(i int) string {
	if i < 0 || i >= NumRegisters {
		return "?"
	}
	return registerNames[i]
}

// RegisterIndex returns the index of the register labeled name.
func RegisterIndex(name string) (int, bool) {
	for i := range registerNames {
		if registerNames[i] == name {
			return i, true
		}
	}
	return -1, false
}

// RegSet is a set of register indexes.
type RegSet uint8

// NewRegSet returns a set containing regs. Indexes outside the register file
// are ignored.
func NewRegSet(regs ...int) RegSet {
	var s RegSet
	for _, r := range regs {
		s = s.Add(r)
	}
	return s
}

// Add returns s with r added.
func (s RegSet) Add(r int) RegSet {
	if r < 0 || r >= NumRegisters {
		return s
	}
	return s | 1<<uint(r)
}

// Has returns true if r is in the set.
func (s RegSet) Has(r int) bool {
	if r < 0 || r >= NumRegisters {
		return false
	}
	return s&(1<<uint(r)) != 0
}

// Slice returns the members of the set in ascending order.
func (s RegSet) Slice() []int {
	var r []int
	for i := 0; i < NumRegisters; i++ {
		if s.Has(i) {
			r = append(r, i)
		}
	}
	return r
}

func (s RegSet) String() string {
	names := make([]string, 0, NumRegisters)
	for _, r := range s.Slice() {
		names = append(names, registerNames[r])
	}
	return "{" + strings.Join(names, ",") + "}"
}
