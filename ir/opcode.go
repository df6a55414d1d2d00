package ir

// Opcode is a machine-independent IR operation. The set here covers the
// operations a front end emits, plus a handful of pseudo-opcodes the
// legalizer and register allocator introduce along the way (flags
// materialization, parallel-move resolution, spill/fill).
type Opcode uint16

const (
	OpInvalid Opcode = iota

	// Constants.
	OpIconst // iconst.T imm -> result : T   (controlling type = result)
	OpBconst // bconst.T imm -> result : T (b*)
	OpF32const
	OpF64const

	// Arithmetic (controlling type = result/first operand).
	OpIadd
	OpIsub
	OpImul
	OpIaddImm // iadd_imm x, imm -> result
	OpSdiv    // traps on division by zero and on MIN/-1 overflow
	OpUdiv    // traps on division by zero
	OpSrem
	OpUrem
	OpBand
	OpBor
	OpBxor
	OpIshl
	OpUshr
	OpSshr

	// Comparison; produces a b1 result directly at the machine-independent
	// level. iflags/fflags only appear once the legalizer rewrites an Icmp
	// into an ISA compare; no front end produces them directly.
	OpIcmp

	// bint materializes a b1 (or, post-legalization, a flags value) to 0/1
	// in an integer register of the requested width.
	OpBint

	// FlagsCmp is the legalized form of Icmp: an ISA-level compare that
	// leaves its condition in a flags pseudo-value instead of a b1 register
	// value. Produced by the legalizer, never by a front end.
	OpFlagsCmp

	// BrifFlags is the legalized form of Brif when its condition comes
	// directly from a FlagsCmp in the same block: branch on flags, no
	// intervening register materialization.
	OpBrifFlags

	// IDivRaw/UDivRaw are the legalized forms of Sdiv/Udiv: the hardware
	// divide instruction itself, once the legalizer has already inserted
	// the division-by-zero and MIN/-1-overflow trap guards in front of it.
	OpIDivRaw
	OpUDivRaw

	// Control flow.
	OpJump    // jump block(args...)
	OpBrif    // brif cond, block_true(args...), block_false(args...)
	OpBrTable // br_table index, jump_table_entity, default_block (case targets carry no args)
	OpReturn  // return args...
	OpTrap    // trap code (unconditional)
	OpTrapif  // conditional trap, used by legalized sdiv/udiv guards

	// Memory.
	OpLoad  // load.T addr+offset -> result
	OpStore // store.T value, addr+offset
	OpStackAddr
	OpStackLoad
	OpStackStore
	OpHeapAddr // heap_addr heap, index, offset, size -> native pointer
	OpGlobalValue

	// Calls.
	OpCall
	OpCallIndirect

	// Register-allocator-inserted pseudo-instructions.
	OpCopy // unify a value into a virtual register / resolve a branch-arg move
	OpSpill
	OpFill
)

var opcodeNames = map[Opcode]string{
	OpInvalid: "invalid", OpIconst: "iconst", OpBconst: "bconst",
	OpF32const: "f32const", OpF64const: "f64const",
	OpIadd: "iadd", OpIsub: "isub", OpImul: "imul", OpIaddImm: "iadd_imm",
	OpSdiv: "sdiv", OpUdiv: "udiv", OpSrem: "srem", OpUrem: "urem",
	OpBand: "band", OpBor: "bor", OpBxor: "bxor",
	OpIshl: "ishl", OpUshr: "ushr", OpSshr: "sshr",
	OpIcmp: "icmp", OpBint: "bint",
	OpFlagsCmp: "flags_cmp", OpBrifFlags: "brif_flags",
	OpIDivRaw: "idiv_raw", OpUDivRaw: "udiv_raw",
	OpJump: "jump", OpBrif: "brif", OpBrTable: "br_table", OpReturn: "return",
	OpTrap: "trap", OpTrapif: "trapif",
	OpLoad: "load", OpStore: "store",
	OpStackAddr: "stack_addr", OpStackLoad: "stack_load", OpStackStore: "stack_store",
	OpHeapAddr: "heap_addr", OpGlobalValue: "global_value",
	OpCall: "call", OpCallIndirect: "call_indirect",
	OpCopy: "copy", OpSpill: "spill", OpFill: "fill",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "opcode?"
}

// IsTerminator reports whether op ends a block; every block must end with
// exactly one.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpJump, OpBrif, OpBrifFlags, OpBrTable, OpReturn, OpTrap:
		return true
	default:
		return false
	}
}

// IsBranch reports whether op carries block targets with typed arguments.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpJump, OpBrif, OpBrifFlags, OpBrTable:
		return true
	default:
		return false
	}
}

// IntCC is an integer comparison condition code for Icmp.
type IntCC uint8

const (
	CondEq IntCC = iota
	CondNe
	CondSlt
	CondSle
	CondSgt
	CondSge
	CondUlt
	CondUle
	CondUgt
	CondUge
)

func (c IntCC) String() string {
	names := [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}
	if int(c) < len(names) {
		return names[c]
	}
	return "cc?"
}

// Signed reports whether c is a signed comparison.
func (c IntCC) Signed() bool {
	switch c {
	case CondSlt, CondSle, CondSgt, CondSge:
		return true
	default:
		return false
	}
}
