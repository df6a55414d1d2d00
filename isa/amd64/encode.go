package amd64

import (
	"crank/ir"
	"crank/isa"
)

// SelectRecipe implements isa.Machine: it reports a direct encoding for
// every opcode this target can encode as-is, and false for the handful
// (sdiv/udiv, icmp, heap_addr, a GVLoad-kind global_value) that always need
// Expand first. Expand's own output opcodes (idiv_raw/udiv_raw, flags_cmp,
// brif_flags) are themselves directly encodable, so the legalizer's
// fixpoint loop terminates.
func (m *Machine) SelectRecipe(f *ir.Function, i ir.Inst) (isa.Recipe, bool) {
	inst := f.Inst(i)
	switch inst.Op {
	case ir.OpIconst, ir.OpBconst:
		return recipe(RecipeMovImm, 10, false), true
	case ir.OpIadd, ir.OpIsub, ir.OpImul, ir.OpBand, ir.OpBor, ir.OpBxor:
		if inst.Op == ir.OpImul {
			return recipe(RecipeRR, 4, false), true // two-byte 0f af opcode
		}
		return recipe(RecipeRR, 3, false), true
	case ir.OpIshl, ir.OpUshr, ir.OpSshr:
		return recipe(RecipeShift, 3, false), true
	case ir.OpIaddImm:
		return recipe(RecipeRI, 7, false), true
	case ir.OpIDivRaw:
		return recipe(RecipeIDiv, 4, false), true // REX, cqo, f7 /7
	case ir.OpUDivRaw:
		return recipe(RecipeIDiv, 5, false), true // REX, xor edx,edx, f7 /6
	case ir.OpBint:
		if f.ValueType(inst.Args[0]).IsFlags() {
			return recipe(RecipeSetcc, 8, false), true
		}
		return false_()
	case ir.OpFlagsCmp:
		return recipe(RecipeCmp, 3, false), true
	case ir.OpBrifFlags:
		return recipe(RecipeJccFlagsShort, 2, true), true
	case ir.OpBrif:
		return recipe(RecipeJccRegShort, 5, true), true
	case ir.OpJump:
		return recipe(RecipeJmpShort, 2, true), true
	case ir.OpBrTable:
		return recipe(RecipeBrTable, 28, false), true
	case ir.OpReturn:
		return recipe(RecipeRet, 1, false), true
	case ir.OpTrap:
		return recipe(RecipeUd2, 2, false), true
	case ir.OpTrapif:
		return recipe(RecipeTrapcc, 8, false), true
	case ir.OpLoad, ir.OpStackLoad, ir.OpStore, ir.OpStackStore:
		// REX, opcode, ModRM and disp32, plus the SIB byte emitMem adds for
		// an rsp/r12 address register.
		id, addrIdx, size := RecipeLoad, 0, 7
		if inst.Op == ir.OpStore || inst.Op == ir.OpStackStore {
			id, addrIdx = RecipeStore, 1
		}
		if addrIdx < len(inst.Args) && f.Locations[inst.Args[addrIdx]].Reg.Num&7 == 4 {
			size = 8
		}
		return recipe(id, size, false), true
	case ir.OpStackAddr:
		return recipe(RecipeLea, 7, false), true
	case ir.OpGlobalValue:
		if gv, ok := f.Entity(inst.Entity).(ir.GlobalValueData); ok && gv.Kind == ir.GVLoad {
			return false_()
		}
		return recipe(RecipeLea, 10, false), true // emitted as REX, b8+r, imm64
	case ir.OpHeapAddr:
		return false_()
	case ir.OpCall:
		return recipe(RecipeCall, 5, false), true
	case ir.OpCallIndirect:
		return recipe(RecipeCallIndirect, 3, false), true
	case ir.OpCopy:
		return recipe(RecipeMovRR, 3, false), true
	case ir.OpSpill:
		return recipe(RecipeSpill, 7, false), true
	case ir.OpFill:
		return recipe(RecipeFill, 7, false), true
	default:
		return false_()
	}
}

func false_() (isa.Recipe, bool) { return isa.Recipe{}, false }
