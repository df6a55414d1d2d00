package ir

// valueDef records how a Value came to exist: either as a block parameter or
// as an instruction result, and at what position within that result list.
type valueDef struct {
	typ Type

	// Exactly one of (block != BlockNil) or (inst != InstNil) holds.
	block    Block // owning block, if this is a block parameter
	paramIdx int   // index within the block's parameter list

	inst      Inst // defining instruction, if this is an instruction result
	resultIdx int  // index within the instruction's result list
}

// IsBlockParam reports whether v is a block parameter rather than an
// instruction result.
func (f *Function) IsBlockParam(v Value) bool {
	v = f.resolve(v)
	return f.values[v].block != BlockNil
}

// ValueType returns v's type, resolving through the alias table first so a
// replaced value's type reads through transparently.
func (f *Function) ValueType(v Value) Type {
	v = f.resolve(v)
	return f.values[v].typ
}

// ValueDef returns the instruction that defines v, or InstNil if v is a
// block parameter.
func (f *Function) ValueDef(v Value) Inst {
	v = f.resolve(v)
	return f.values[v].inst
}

// ValueBlockParam returns the block v is a parameter of, and its index in
// that block's parameter list. ok is false if v is not a block parameter.
func (f *Function) ValueBlockParam(v Value) (b Block, idx int, ok bool) {
	v = f.resolve(v)
	d := f.values[v]
	if d.block == BlockNil {
		return BlockNil, 0, false
	}
	return d.block, d.paramIdx, true
}

// Resolve follows the alias table to the canonical Value for v. Passes
// downstream of legalization (liveness, coloring, emission) must resolve
// every Value read out of an Args/Targets list before using it as a map
// key or comparing it to another Value, since ReplaceWithAliases only
// redirects future resolve()s, not the raw integers already stored in an
// instruction that referenced the original.
func (f *Function) Resolve(v Value) Value { return f.resolve(v) }

// resolve follows the alias table to the canonical Value for v, so every
// read after a ReplaceWithAliases call sees the replacement. Resolution is
// iterative in case of alias chains and points v directly at the final
// target, so a later read of v takes a single lookup.
func (f *Function) resolve(v Value) Value {
	for {
		next, ok := f.aliases[v]
		if !ok {
			return v
		}
		// Path compression: point v directly at the final target so later
		// lookups of v are O(1).
		target := next
		for {
			n, ok := f.aliases[target]
			if !ok || n == v {
				break
			}
			target = n
		}
		if target != next {
			f.aliases[v] = target
		}
		if target == v {
			// A degenerate self-alias; treat as resolved to avoid looping.
			return v
		}
		return target
	}
}

// ReplaceWithAliases makes every future read of old resolve to new instead,
// without rewriting any instruction that already references old. It is the
// mechanism legalizer expansions use to retarget uses of an original
// instruction's result at the last replacement in an expansion chain, in
// constant time, instead of walking and rewriting every use.
func (f *Function) ReplaceWithAliases(old, new Value) {
	if old == new {
		return
	}
	f.aliases[old] = new
}
