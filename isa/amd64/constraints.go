package amd64

import "crank/isa"

// callerSavedRegs lists every allocatable register a call instruction
// destroys: all of them except the System V callee-saved GPRs (there are no
// callee-saved XMMs).
var callerSavedRegs = func() []int16 {
	saved := make(map[int16]bool, len(calleeSavedGPRs))
	for _, r := range calleeSavedGPRs {
		saved[int16(r)] = true
	}
	var out []int16
	for _, r := range allocatableGPRs {
		if !saved[int16(r.Num)] {
			out = append(out, int16(r.Num))
		}
	}
	for _, r := range allocatableXMMs {
		out = append(out, int16(r.Num)+xmmRegOffset)
	}
	return out
}()

// xmmRegOffset separates GPR and XMM register numbers within the int16
// clobber-list encoding, since both classes start their Real numbering at 0.
const xmmRegOffset = 1000

func noFixed(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(-1)
	}
	return out
}

// ConstraintsFor implements isa.Machine.
func (m *Machine) ConstraintsFor(recipe isa.Recipe) isa.OperandConstraints {
	switch recipe.ID {
	case RecipeIDiv:
		return isa.OperandConstraints{
			FixedIns:      []int16{int16(RAX), noFixedReg},
			FixedOuts:     []int16{int16(RAX)},
			TiedOutToIn:   []int{-1},
			ClobberedRegs: []int16{int16(RDX)},
		}
	case RecipeRR:
		return isa.OperandConstraints{
			FixedIns:    noFixed(2),
			FixedOuts:   noFixed(1),
			TiedOutToIn: []int{0},
		}
	case RecipeRI:
		return isa.OperandConstraints{
			FixedIns:    noFixed(1),
			FixedOuts:   noFixed(1),
			TiedOutToIn: []int{0},
		}
	case RecipeShift:
		return isa.OperandConstraints{
			FixedIns:    []int16{noFixedReg, int16(RCX)},
			FixedOuts:   noFixed(1),
			TiedOutToIn: []int{0},
		}
	case RecipeCall:
		return isa.OperandConstraints{ClobberedRegs: callerSavedRegs}
	case RecipeCallIndirect:
		return isa.OperandConstraints{ClobberedRegs: callerSavedRegs}
	case RecipeBrTable:
		// Index is pinned to rcx so its encoding can hardcode the SIB byte;
		// rax/rdx hold the table base and loaded entry, both instruction-
		// internal scratch invisible to the IR.
		return isa.OperandConstraints{
			FixedIns:      []int16{int16(RCX)},
			ClobberedRegs: []int16{int16(RAX), int16(RDX)},
		}
	default:
		return isa.OperandConstraints{}
	}
}

const noFixedReg = int16(-1)
