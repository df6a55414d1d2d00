package isa

// Recipe identifies one encoding shape a Machine can produce for an
// instruction: a fixed or minimum byte length, and a name for diagnostics.
// The concrete bit-level encoding lives in the Machine implementation's
// Emit method; Recipe itself is opaque data legalize/regalloc carry around.
type Recipe struct {
	ID   uint16
	Name string

	// Size is the recipe's nominal encoded length in bytes. Relaxable
	// recipes (e.g. a branch that might need a 32-bit instead of an 8-bit
	// displacement) report their smallest size here; emit's branch
	// relaxation pass re-measures and re-selects as needed.
	Size int

	// Relaxable is true when this recipe has a larger fallback recipe sized
	// to hold any displacement, looked up by the Machine by ID convention
	// (fallback = ID+1), for branch relaxation.
	Relaxable bool
}

// OperandConstraints describes the register-assignment constraints a
// recipe's operands impose on the coloring pass.
type OperandConstraints struct {
	// FixedIns/FixedOuts name a physical register an operand/result must
	// land in (e.g. idiv's dividend in rax:rdx), indexed by operand/result
	// position; Invalid (machreg.Invalid) means "no fixed constraint".
	FixedIns  []int16
	FixedOuts []int16

	// TiedOutToIn maps a result index to the input operand index it must
	// share a register with (two-operand x86 forms like `add dst, src`
	// where dst is both read and written); -1 means untied.
	TiedOutToIn []int

	// EarlyClobber marks result indices whose register must not alias any
	// input still live at the point of execution (the result is written
	// before all inputs are necessarily dead).
	EarlyClobber []int

	// ClobberedRegs lists additional physical registers this instruction
	// destroys as a side effect (e.g. idiv clobbers both rax and rdx even
	// though only one is the "real" result). Neither regalloc/liveness nor
	// regalloc/color reads this list.
	ClobberedRegs []int16
}
