package ir

// Layout operations keep two doubly linked orderings live: blocks within the
// function, and instructions within each block. Program positions derived
// from this order are what liveness.go compares.

// AppendBlock appends b to the end of the function's block order.
func (f *Function) AppendBlock(b Block) {
	bd := &f.blocks[b]
	if bd.inLayout {
		panic("ir: block already in layout")
	}
	bd.inLayout = true
	bd.prevBlock = f.lastBlock
	bd.nextBlock = BlockNil
	if f.lastBlock == BlockNil {
		f.firstBlock = b
	} else {
		f.blocks[f.lastBlock].nextBlock = b
	}
	f.lastBlock = b
	f.invalidateCFG()
}

// FirstBlock returns the entry block, or BlockNil if the layout is empty.
func (f *Function) FirstBlock() Block { return f.firstBlock }

// NextBlock returns the block following b in layout order, or BlockNil.
func (f *Function) NextBlock(b Block) Block { return f.blocks[b].nextBlock }

// PrevBlock returns the block preceding b in layout order, or BlockNil.
func (f *Function) PrevBlock(b Block) Block { return f.blocks[b].prevBlock }

// Blocks returns every block in layout order. Callers in hot paths should
// prefer FirstBlock/NextBlock to avoid the allocation.
func (f *Function) Blocks() []Block {
	out := make([]Block, 0, f.NumBlocks())
	for b := f.firstBlock; b != BlockNil; b = f.blocks[b].nextBlock {
		out = append(out, b)
	}
	return out
}

// AppendInst builds a new instruction from data, appends it to the end of
// block, and returns its handle; the result values it defines are read
// through Inst(h).Results().
func (f *Function) AppendInst(block Block, data Instruction) Inst {
	inst := f.instantiate(block, data)
	bd := &f.blocks[block]
	in := f.allocInst(inst)
	inst.prev = bd.lastInst
	inst.next = InstNil
	if bd.lastInst == InstNil {
		bd.firstInst = in
	} else {
		f.insts[bd.lastInst].next = in
	}
	bd.lastInst = in
	f.finishResults(in)
	f.invalidateCFG()
	return in
}

// InsertBefore builds a new instruction from data and inserts it immediately
// before `before` in `before`'s block.
func (f *Function) InsertBefore(before Inst, data Instruction) Inst {
	beforeInst := f.insts[before]
	block := beforeInst.block
	inst := f.instantiate(block, data)
	in := f.allocInst(inst)
	prev := beforeInst.prev
	inst.prev = prev
	inst.next = before
	beforeInst.prev = in
	if prev == InstNil {
		f.blocks[block].firstInst = in
	} else {
		f.insts[prev].next = in
	}
	f.finishResults(in)
	f.invalidateCFG()
	return in
}

// InsertAfter builds a new instruction from data and inserts it immediately
// after `after` in `after`'s block.
func (f *Function) InsertAfter(after Inst, data Instruction) Inst {
	afterInst := f.insts[after]
	block := afterInst.block
	inst := f.instantiate(block, data)
	in := f.allocInst(inst)
	next := afterInst.next
	inst.prev = after
	inst.next = next
	afterInst.next = in
	if next == InstNil {
		f.blocks[block].lastInst = in
	} else {
		f.insts[next].prev = in
	}
	f.finishResults(in)
	f.invalidateCFG()
	return in
}

// Remove unlinks inst from its block's layout and frees its slot, and the
// value slots of those results no alias redirects. The caller must first
// ensure every remaining use of its results is gone or redirected with
// ReplaceWithAliases; a redirected result keeps its value slot, so reads of
// it keep resolving to the replacement. Any pass deleting
// an instruction is responsible for updating affected live ranges itself;
// there is no tombstone mechanism.
func (f *Function) Remove(inst Inst) {
	id := f.insts[inst]
	block := id.block
	bd := &f.blocks[block]
	if id.prev == InstNil {
		bd.firstInst = id.next
	} else {
		f.insts[id.prev].next = id.next
	}
	if id.next == InstNil {
		bd.lastInst = id.prev
	} else {
		f.insts[id.next].prev = id.prev
	}
	for _, v := range id.results {
		if _, aliased := f.aliases[v]; aliased {
			continue
		}
		f.freeValue = append(f.freeValue, v)
	}
	f.insts[inst] = nil
	f.freeInst = append(f.freeInst, inst)
	f.invalidateCFG()
}

// InstsOf iterates the instructions of block in layout order.
func (f *Function) InstsOf(block Block) []Inst {
	bd := f.blocks[block]
	out := make([]Inst, 0)
	for i := bd.firstInst; i != InstNil; i = f.insts[i].next {
		out = append(out, i)
	}
	return out
}

// FirstInst returns the first instruction of block, or InstNil if empty.
func (f *Function) FirstInst(block Block) Inst { return f.blocks[block].firstInst }

// LastInst returns the last instruction of block (its terminator, once the
// function is well-formed), or InstNil if empty.
func (f *Function) LastInst(block Block) Inst { return f.blocks[block].lastInst }

// NextInst returns the instruction following i in its block, or InstNil.
func (f *Function) NextInst(i Inst) Inst { return f.insts[i].next }

// PrevInst returns the instruction preceding i in its block, or InstNil.
func (f *Function) PrevInst(i Inst) Inst { return f.insts[i].prev }

// instantiate copies data, tags it with its owning block, and reserves room
// for its result Values; the Values themselves are allocated by
// finishResults once the Inst handle is known.
func (f *Function) instantiate(block Block, data Instruction) *Instruction {
	inst := data
	inst.block = block
	if n := resultArity(inst.Op, &inst); n > 0 {
		inst.results = make([]Value, n)
	}
	return &inst
}

func (f *Function) invalidateCFG() {
	f.cfgGen++
}

// finishResults allocates the actual result Value handles for in, once its
// Inst handle (and therefore a valid def-backpointer) is known.
func (f *Function) finishResults(in Inst) {
	inst := f.insts[in]
	for i := range inst.results {
		inst.results[i] = f.allocValue(valueDef{typ: resultType(inst, i), inst: in, resultIdx: i})
	}
}
