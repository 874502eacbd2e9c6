package proc

import (
	"github.com/go-delve/elfdb/pkg/elfcode"
)

// StepContext describes one executed instruction. It implements
// breakexpr.Context.
type StepContext struct {
	line   int
	inst   elfcode.Instruction
	reads  elfcode.RegSet
	writes elfcode.RegSet
	before elfcode.Registers
	after  elfcode.Registers

	// unique holds the registers whose post-step value was new to the
	// tracker when the step was recorded.
	unique   elfcode.RegSet
	observed elfcode.RegSet
	tracker  *Tracker
}

// Write is a register written by a step.
type Write struct {
	Reg      int
	Old, New int64
	Unique   bool
}

// Line returns the line of the executed instruction.
func (s *StepContext) Line() int { return s.line }

// Instruction returns the executed instruction.
func (s *StepContext) Instruction() elfcode.Instruction { return s.inst }

// Reads returns the registers read by the instruction.
func (s *StepContext) Reads() elfcode.RegSet { return s.reads }

// Writes returns the registers written by the instruction.
func (s *StepContext) Writes() elfcode.RegSet { return s.writes }

// Before returns the registers before the step.
func (s *StepContext) Before() elfcode.Registers { return s.before }

// Registers returns the registers after the step, including the ip
// increment.
func (s *StepContext) Registers() elfcode.Registers { return s.after }

func (s *StepContext) Read(reg int) bool    { return s.reads.Has(reg) }
func (s *StepContext) Written(reg int) bool { return s.writes.Has(reg) }

func (s *StepContext) Value(reg int) (int64, error) {
	return s.after.Get(reg)
}

// Unique reports whether the value reg holds after the step had not been
// observed in reg before. For registers the step did not observe the
// current value is checked against the history without recording it.
func (s *StepContext) Unique(reg int) bool {
	if s.observed.Has(reg) {
		return s.unique.Has(reg)
	}
	v, err := s.after.Get(reg)
	if err != nil {
		return false
	}
	return s.tracker.IsUnique(reg, v)
}

// WriteList returns the writes of the step with their old and new values.
func (s *StepContext) WriteList() []Write {
	var r []Write
	for _, reg := range s.writes.Slice() {
		r = append(r, Write{Reg: reg, Old: s.before[reg], New: s.after[reg], Unique: s.unique.Has(reg)})
	}
	return r
}

// newStepContext computes the uniqueness verdicts of the registers observed
// by the step against the history as it was before the step, then records
// the new values.
func newStepContext(line int, inst elfcode.Instruction, before, after elfcode.Registers, ip int, tracker *Tracker) *StepContext {
	reads, writes := elfcode.Describe(inst)
	s := &StepContext{
		line:     line,
		inst:     inst,
		reads:    reads,
		writes:   writes,
		before:   before,
		after:    after,
		observed: writes.Add(ip),
		tracker:  tracker,
	}
	regs := s.observed.Slice()
	for _, reg := range regs {
		if tracker.IsUnique(reg, after[reg]) {
			s.unique = s.unique.Add(reg)
		}
	}
	for _, reg := range regs {
		tracker.Record(reg, after[reg])
	}
	return s
}
