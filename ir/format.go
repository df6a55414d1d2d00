package ir

// resultArity returns how many result Values an instruction defines, given
// its opcode and already-populated fields; this is needed before the
// caller knows result Values exist. call/call_indirect take their count
// from callResultArity, which the builder records from the referenced
// signature at construction time; every other opcode has a fixed count.
func resultArity(op Opcode, inst *Instruction) int {
	switch op {
	case OpStore, OpStackStore, OpJump, OpBrif, OpBrifFlags, OpBrTable, OpReturn, OpTrap, OpTrapif, OpSpill:
		return 0
	case OpCall, OpCallIndirect:
		return inst.callResultArity
	default:
		return 1
	}
}

// resultType returns the type of inst's idx'th result. Simple opcodes are
// single-result and take their type directly from Typ (the controlling type
// variable); call/call_indirect instead consult the referenced signature,
// stashed in callResultTypes at construction time (builder.go).
func resultType(inst *Instruction, idx int) Type {
	switch inst.Op {
	case OpCall, OpCallIndirect:
		return inst.callResultTypes[idx]
	case OpIcmp:
		return B1
	case OpLoad, OpStackLoad:
		return inst.Typ
	case OpHeapAddr, OpStackAddr, OpGlobalValue:
		return inst.Typ
	default:
		return inst.Typ
	}
}
