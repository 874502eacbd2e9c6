package api

import (
	"github.com/go-delve/elfdb/pkg/breakexpr"
	"github.com/go-delve/elfdb/pkg/elfcode"
	"github.com/go-delve/elfdb/pkg/proc"
)

// ConvertBreakpoint converts an internal breakpoint to an API Breakpoint.
// If tracker is not nil the history of the registers used by unique terms
// is included.
func ConvertBreakpoint(bp *proc.Breakpoint, tracker *proc.Tracker) *Breakpoint {
	b := &Breakpoint{
		ID:       bp.ID,
		Cond:     bp.Text,
		Expr:     bp.Expr.String(),
		Enabled:  bp.Enabled,
		HitCount: bp.HitCount,
	}
	if tracker == nil {
		return b
	}
	for _, reg := range breakexpr.UniqueRegisters(bp.Expr) {
		h := tracker.History(reg)
		if h == nil {
			continue
		}
		last, _ := h.Last()
		b.Unique = append(b.Unique, UniqueInfo{
			Register: elfcode.RegisterName(reg),
			Seen:     h.Len(),
			Last:     last,
			Values:   h.Values(),
		})
	}
	return b
}

// ConvertBreakpoints converts a slice of internal breakpoints.
func ConvertBreakpoints(bps []*proc.Breakpoint) []*Breakpoint {
	if len(bps) == 0 {
		return nil
	}
	r := make([]*Breakpoint, len(bps))
	for i := range bps {
		r[i] = ConvertBreakpoint(bps[i], nil)
	}
	return r
}

// ConvertInstruction converts the instruction on the given line.
func ConvertInstruction(line int, inst elfcode.Instruction, ip int) Instruction {
	return Instruction{
		Line:  line,
		Op:    inst.Op.String(),
		A:     inst.A,
		B:     inst.B,
		C:     inst.C,
		Text:  inst.String(),
		Human: inst.HumanString(ip),
	}
}

// ConvertProgram converts a loaded program.
func ConvertProgram(path string, p *elfcode.Program) *Program {
	r := &Program{Path: path, IPRegister: p.IP}
	for i, inst := range p.Instructions {
		ri := ConvertInstruction(i, inst, p.IP)
		ri.SourceLine = p.SourceLine(i)
		r.Instructions = append(r.Instructions, ri)
	}
	return r
}

// ConvertStep converts the context of an executed instruction.
func ConvertStep(s *proc.StepContext, ip int) *StepInfo {
	if s == nil {
		return nil
	}
	r := &StepInfo{
		Line:        s.Line(),
		Instruction: ConvertInstruction(s.Line(), s.Instruction(), ip),
	}
	for _, reg := range s.Reads().Slice() {
		r.Reads = append(r.Reads, elfcode.RegisterName(reg))
	}
	for _, w := range s.WriteList() {
		r.Writes = append(r.Writes, Write{
			Register: elfcode.RegisterName(w.Reg),
			Old:      w.Old,
			New:      w.New,
			Unique:   w.Unique,
		})
	}
	return r
}

// ConvertRegisters converts the register file, marking the registers the
// last step read or wrote.
func ConvertRegisters(regs elfcode.Registers, ip int, last *proc.StepContext) []Register {
	r := make([]Register, len(regs))
	for i, v := range regs {
		r[i] = Register{Name: elfcode.RegisterName(i), Value: v, IP: i == ip}
		if last != nil {
			r[i].Read = last.Read(i)
			r[i].Written = last.Written(i)
		}
	}
	return r
}
