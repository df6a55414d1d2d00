package amd64

import "crank/isa"

// Recipe IDs. Grouped by instruction shape rather than by opcode: several
// opcodes (iadd/isub/imul/band/bor/bxor) share the same
// two-operand register-to-register shape and therefore the same recipe.
//
// The three relaxable branch families (jmp, brif_flags, brif on a register)
// each get a short/long ID pair, short first: isa.Recipe's "fallback =
// ID+1" convention means a short recipe's wider encoding is always the very
// next ID, so these pairs must stay adjacent.
const (
	RecipeMovImm uint16 = iota + 1
	RecipeRR            // dst(=src1), src2 -> dst  (two-operand tied form)
	RecipeRI            // iadd_imm
	RecipeShift         // dst(=src1) <<,>>,>>s cl  (shift count fixed to rcx)
	RecipeIDiv          // rax:rdx / src -> rax (quot), rdx (rem); clobbers both
	RecipeCmp           // flags_cmp
	RecipeSetcc         // bint from a flags value
	RecipeBintFromBool  // bint from a b1 register value (movzx)

	RecipeJmpShort      // jmp rel8
	RecipeJmpLong       // jmp rel32
	RecipeJccFlagsShort // jcc rel8, condition taken directly from flags
	RecipeJccFlagsLong  // jcc rel32
	RecipeJccRegShort   // test reg,reg; jnz rel8
	RecipeJccRegLong    // test reg,reg; jnz rel32

	RecipeRet
	RecipeUd2    // trap
	RecipeTrapcc // trapif
	RecipeLoad
	RecipeStore
	RecipeLea // stack_addr / global_value address compute
	RecipeCall
	RecipeCallIndirect
	RecipeMovRR // copy
	RecipeSpill
	RecipeFill
	RecipeBrTable // br_table: range check, rip-relative table load, indirect jump
)

var recipeNames = map[uint16]string{
	RecipeMovImm: "mov_imm", RecipeRR: "rr", RecipeRI: "ri", RecipeShift: "shift",
	RecipeIDiv: "idiv", RecipeCmp: "cmp", RecipeSetcc: "setcc",
	RecipeBintFromBool: "movzx",
	RecipeJmpShort:      "jmp_short",
	RecipeJmpLong:       "jmp_long",
	RecipeJccFlagsShort: "jcc_flags_short",
	RecipeJccFlagsLong:  "jcc_flags_long",
	RecipeJccRegShort:   "jcc_reg_short",
	RecipeJccRegLong:    "jcc_reg_long",
	RecipeRet:           "ret", RecipeUd2: "ud2", RecipeTrapcc: "trapcc",
	RecipeLoad: "load", RecipeStore: "store", RecipeLea: "lea",
	RecipeCall: "call", RecipeCallIndirect: "call_indirect",
	RecipeMovRR: "mov_rr", RecipeSpill: "spill", RecipeFill: "fill",
	RecipeBrTable: "br_table",
}

func recipe(id uint16, size int, relaxable bool) isa.Recipe {
	return isa.Recipe{ID: id, Name: recipeNames[id], Size: size, Relaxable: relaxable}
}

// relaxedSize gives the fixed nominal size of each long recipe, keyed by its
// own ID (every short recipe's long fallback is ID+1; Relax looks the
// result up here rather than hardcoding sizes at the call site).
var relaxedSize = map[uint16]int{
	RecipeJmpLong:      5,
	RecipeJccFlagsLong: 6,
	RecipeJccRegLong:   9,
}
