package ir

import "crank/internal/cerr"

// Builder is a thin typed API over Function for constructing instructions.
// It tracks an insertion cursor (the "current block") but has no AST or
// SSA-construction state of its own: the IR it builds is already in SSA
// form by construction, since callers pass already-resolved Values rather
// than variable names.
type Builder struct {
	F     *Function
	block Block
}

// NewBuilder creates a Builder over an already-constructed Function.
func NewBuilder(f *Function) *Builder {
	return &Builder{F: f}
}

// CreateEntryBlock allocates the function's entry block with parameters
// matching the function signature and appends it to the layout.
func (b *Builder) CreateEntryBlock() Block {
	types := make([]Type, len(b.F.Signature.Params))
	for i, p := range b.F.Signature.Params {
		types[i] = p.Type
	}
	blk := b.F.NewBlock(types...)
	b.F.AppendBlock(blk)
	b.block = blk
	return blk
}

// CreateBlock allocates a new block with the given parameter types and
// appends it to the layout, without switching the insertion cursor to it.
func (b *Builder) CreateBlock(paramTypes ...Type) Block {
	blk := b.F.NewBlock(paramTypes...)
	b.F.AppendBlock(blk)
	return blk
}

// SwitchToBlock moves the insertion cursor to blk; subsequent ins* calls
// append to blk.
func (b *Builder) SwitchToBlock(blk Block) { b.block = blk }

func (b *Builder) ins(data Instruction) *Instruction {
	in := b.F.AppendInst(b.block, data)
	return b.F.Inst(in)
}

// Iconst appends an iconst.T instruction.
func (b *Builder) Iconst(t Type, imm int64) Value {
	return b.ins(Instruction{Op: OpIconst, Typ: t, Imm: imm}).Result()
}

// Bconst appends a bconst.T instruction.
func (b *Builder) Bconst(t Type, v bool) Value {
	imm := int64(0)
	if v {
		imm = 1
	}
	return b.ins(Instruction{Op: OpBconst, Typ: t, Imm: imm}).Result()
}

// Iadd appends an iadd instruction.
func (b *Builder) Iadd(x, y Value) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpIadd, Typ: t, Args: []Value{x, y}}).Result()
}

// Isub appends an isub instruction.
func (b *Builder) Isub(x, y Value) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpIsub, Typ: t, Args: []Value{x, y}}).Result()
}

// Imul appends an imul instruction.
func (b *Builder) Imul(x, y Value) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpImul, Typ: t, Args: []Value{x, y}}).Result()
}

// IaddImm appends an iadd_imm instruction: x plus an immediate constant.
func (b *Builder) IaddImm(x Value, imm int64) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpIaddImm, Typ: t, Args: []Value{x}, Imm: imm}).Result()
}

// Sdiv appends a signed-division instruction. Division by zero and MIN/-1
// overflow trap at runtime; this builder call does not itself check for
// those, since x and y are runtime values.
func (b *Builder) Sdiv(x, y Value) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpSdiv, Typ: t, Args: []Value{x, y}}).Result()
}

// Udiv appends an unsigned-division instruction.
func (b *Builder) Udiv(x, y Value) Value {
	t := b.F.ValueType(x)
	return b.ins(Instruction{Op: OpUdiv, Typ: t, Args: []Value{x, y}}).Result()
}

// Icmp appends a comparison producing a b1 result directly: flags
// pseudotypes only appear once the legalizer rewrites this into an
// ISA-specific compare, never at construction time.
func (b *Builder) Icmp(cc IntCC, x, y Value) Value {
	return b.ins(Instruction{Op: OpIcmp, Typ: B1, Args: []Value{x, y}, Cond: cc}).Result()
}

// Bint materializes a b1 value as 0/1 in an integer register of type t.
func (b *Builder) Bint(t Type, cond Value) Value {
	return b.ins(Instruction{Op: OpBint, Typ: t, Args: []Value{cond}}).Result()
}

// Load appends a typed load from addr+offset.
func (b *Builder) Load(t Type, addr Value, offset int64) Value {
	return b.ins(Instruction{Op: OpLoad, Typ: t, Args: []Value{addr}, Imm: offset}).Result()
}

// Store appends a typed store of val to addr+offset.
func (b *Builder) Store(val, addr Value, offset int64) {
	b.ins(Instruction{Op: OpStore, Typ: b.F.ValueType(val), Args: []Value{val, addr}, Imm: offset})
}

// StackAddr appends a stack_addr instruction computing the address of slot+offset.
func (b *Builder) StackAddr(addrType Type, slot Entity, offset int64) Value {
	return b.ins(Instruction{Op: OpStackAddr, Typ: addrType, Entity: slot, Imm: offset}).Result()
}

// GlobalValue appends a global_value instruction materializing gv.
func (b *Builder) GlobalValue(t Type, gv Entity) Value {
	return b.ins(Instruction{Op: OpGlobalValue, Typ: t, Entity: gv}).Result()
}

// HeapAddr appends a heap_addr bounds-checking address computation. size is
// the access width in bytes, folded into the bounds check by the legalizer.
func (b *Builder) HeapAddr(addrType Type, heap Entity, index Value, offset int64, size uint32) Value {
	return b.ins(Instruction{
		Op: OpHeapAddr, Typ: addrType, Entity: heap, Args: []Value{index},
		Imm: offset | int64(size)<<32,
	}).Result()
}

// Call appends a direct call to the external function ref fn, with the
// given arguments, returning its results (possibly zero or more than one).
func (b *Builder) Call(fn Entity, args ...Value) []Value {
	data, ok := b.F.Entity(fn).(ExtFuncData)
	if !ok {
		cerr.Internal("Call entity %s is not an ext_func", fn)
	}
	sigData, ok := b.F.Entity(data.Sig).(SignatureData)
	if !ok {
		cerr.Internal("ext_func %s references a non-signature entity", fn)
	}
	types := make([]Type, len(sigData.Signature.Results))
	for i, r := range sigData.Signature.Results {
		types[i] = r.Type
	}
	inst := Instruction{
		Op: OpCall, Args: args, Entity: fn,
		callResultArity: len(types), callResultTypes: types,
	}
	return b.ins(inst).Results()
}

// Jump appends an unconditional branch to target with the given arguments.
func (b *Builder) Jump(target Block, args ...Value) {
	b.ins(Instruction{Op: OpJump, Targets: []BlockCall{{Target: target, Args: args}}})
}

// Brif appends a conditional branch: to trueTarget(trueArgs...) if cond is
// nonzero, otherwise to falseTarget(falseArgs...). Both targets are
// explicit; the legalizer is free to place falseTarget as the immediately
// following block so the fallthrough edge costs nothing at emission time.
func (b *Builder) Brif(cond Value, trueTarget Block, trueArgs []Value, falseTarget Block, falseArgs []Value) {
	b.ins(Instruction{
		Op:   OpBrif,
		Args: []Value{cond},
		Targets: []BlockCall{
			{Target: trueTarget, Args: trueArgs},
			{Target: falseTarget, Args: falseArgs},
		},
	})
}

// BrTable appends a jump-table dispatch: index selects among table's case
// targets (each reached with no block arguments), falling back to
// defaultTarget(defaultArgs...) when index is out of range.
func (b *Builder) BrTable(index Value, table Entity, defaultTarget Block, defaultArgs []Value) {
	b.ins(Instruction{
		Op: OpBrTable, Args: []Value{index}, Entity: table,
		Targets: []BlockCall{{Target: defaultTarget, Args: defaultArgs}},
	})
}

// Return appends a return terminator with the given result values.
func (b *Builder) Return(args ...Value) {
	b.ins(Instruction{Op: OpReturn, Args: args})
}

// Trap appends an unconditional trap terminator with the given trap code.
func (b *Builder) Trap(code int64) {
	b.ins(Instruction{Op: OpTrap, Imm: code})
}
