package amd64

import "crank/ir"

// Expand implements isa.Machine for the handful of opcodes SelectRecipe
// always declines. Each case builds its replacement sequence with
// Function.InsertBefore, retargets the original result (if any) at the
// last instruction in the sequence via ReplaceWithAliases, and removes the
// original instruction. The newly inserted instructions are returned; the
// legalizer itself rescans the whole block after every Expand, so each of
// them (a FlagsCmp, a Trapif, an iconst, a global_value) gets its own pass
// through SelectRecipe, or even another Expand, before it's in final form.
func (m *Machine) Expand(f *ir.Function, i ir.Inst) ([]ir.Inst, bool) {
	inst := f.Inst(i)
	switch inst.Op {
	case ir.OpSdiv, ir.OpUdiv:
		return m.expandDiv(f, i, inst), true
	case ir.OpIcmp:
		return m.expandIcmp(f, i, inst), true
	case ir.OpHeapAddr:
		return m.expandHeapAddr(f, i, inst), true
	case ir.OpGlobalValue:
		gv, ok := f.Entity(inst.Entity).(ir.GlobalValueData)
		if !ok || gv.Kind != ir.GVLoad {
			return nil, false
		}
		return m.expandGlobalLoad(f, i, inst, gv), true
	default:
		return nil, false
	}
}

func insertConst(f *ir.Function, before ir.Inst, t ir.Type, imm int64) ir.Value {
	h := f.InsertBefore(before, ir.Instruction{Op: ir.OpIconst, Typ: t, Imm: imm})
	return f.Inst(h).Result()
}

func flagsTypeOf(operand ir.Type) ir.Type {
	if operand.IsFloat() {
		return ir.FFlags
	}
	return ir.IFlags
}

// trapIfEq inserts a FlagsCmp(a, b, cc) followed by a Trapif that fires when
// that comparison holds, and returns both new instructions.
func trapIfEq(f *ir.Function, before ir.Inst, a, b ir.Value, cc ir.IntCC, code int64) []ir.Inst {
	cmp := f.InsertBefore(before, ir.Instruction{
		Op: ir.OpFlagsCmp, Typ: flagsTypeOf(f.ValueType(a)), Args: []ir.Value{a, b}, Cond: cc,
	})
	trap := f.InsertBefore(before, ir.Instruction{
		Op: ir.OpTrapif, Args: []ir.Value{f.Inst(cmp).Result()}, Cond: ir.CondEq, Imm: code,
	})
	return []ir.Inst{cmp, trap}
}

// expandDiv rewrites sdiv/udiv into its trap guards plus the raw hardware
// divide. sdiv additionally guards MIN/-1 overflow, which it tests without
// a conjunction of two booleans: x^MIN | y^-1 is zero exactly when x==MIN
// and y==-1 both hold, since an OR is zero only if every operand bit is.
func (m *Machine) expandDiv(f *ir.Function, i ir.Inst, inst *ir.Instruction) []ir.Inst {
	t := inst.Typ
	x, y := inst.Args[0], inst.Args[1]
	signed := inst.Op == ir.OpSdiv

	var inserted []ir.Inst

	zero := insertConst(f, i, t, 0)
	inserted = append(inserted, trapIfEq(f, i, y, zero, ir.CondEq, TrapDivByZero)...)

	if signed {
		min := insertConst(f, i, t, minForType(t.Bits()))
		negOne := insertConst(f, i, t, -1)
		xorMin := f.InsertBefore(i, ir.Instruction{Op: ir.OpBxor, Typ: t, Args: []ir.Value{x, min}})
		xorNegOne := f.InsertBefore(i, ir.Instruction{Op: ir.OpBxor, Typ: t, Args: []ir.Value{y, negOne}})
		combined := f.InsertBefore(i, ir.Instruction{
			Op: ir.OpBor, Typ: t, Args: []ir.Value{f.Inst(xorMin).Result(), f.Inst(xorNegOne).Result()},
		})
		inserted = append(inserted, xorMin, xorNegOne, combined)
		inserted = append(inserted, trapIfEq(f, i, f.Inst(combined).Result(), zero, ir.CondEq, TrapIntOverflow)...)
	}

	rawOp := ir.OpIDivRaw
	if !signed {
		rawOp = ir.OpUDivRaw
	}
	raw := f.InsertBefore(i, ir.Instruction{Op: rawOp, Typ: t, Args: []ir.Value{x, y}})
	inserted = append(inserted, raw)

	f.ReplaceWithAliases(inst.Result(), f.Inst(raw).Result())
	f.Remove(i)
	return inserted
}

// expandIcmp rewrites a machine-independent compare into a FlagsCmp. When
// the instruction immediately following icmp in the same block is a brif on
// its result, it fuses the two into a single BrifFlags terminator, so the
// comparison never has to materialize into a general-purpose register at
// all; any other use of icmp's result is redirected to the FlagsCmp, as in
// the unfused case.
func (m *Machine) expandIcmp(f *ir.Function, i ir.Inst, inst *ir.Instruction) []ir.Inst {
	flagsT := flagsTypeOf(f.ValueType(inst.Args[0]))
	cmp := f.InsertBefore(i, ir.Instruction{
		Op: ir.OpFlagsCmp, Typ: flagsT, Args: []ir.Value{inst.Args[0], inst.Args[1]}, Cond: inst.Cond,
	})
	cmpVal := f.Inst(cmp).Result()

	if next := f.NextInst(i); next != ir.InstNil {
		ni := f.Inst(next)
		if ni.Op == ir.OpBrif && len(ni.Args) == 1 && ni.Args[0] == inst.Result() {
			ni.Op = ir.OpBrifFlags
			ni.Args = []ir.Value{cmpVal}
			ni.Cond = ir.CondEq
			f.ReplaceWithAliases(inst.Result(), cmpVal)
			f.Remove(i)
			return []ir.Inst{cmp}
		}
	}

	f.ReplaceWithAliases(inst.Result(), cmpVal)
	f.Remove(i)
	return []ir.Inst{cmp}
}

// expandHeapAddr computes a heap_addr's native address, explicitly
// bounds-checking the access first when the target Machine was built
// without guard pages; otherwise it just computes base+index+offset and
// leaves out-of-bounds accesses to trap against the guard region.
func (m *Machine) expandHeapAddr(f *ir.Function, i ir.Inst, inst *ir.Instruction) []ir.Inst {
	addrType := inst.Typ
	index := inst.Args[0]
	offset := inst.Imm & 0xffffffff
	size := (inst.Imm >> 32) & 0xffffffff
	heap, _ := f.Entity(inst.Entity).(ir.HeapData)

	var inserted []ir.Inst
	var base ir.Value

	if heap.Kind == ir.HeapStatic {
		base = insertConst(f, i, addrType, int64(heap.Base))
		if !m.useGuardPages {
			limit := int64(heap.Bound) - offset - size
			limitVal := insertConst(f, i, addrType, limit)
			inserted = append(inserted, trapIfEq(f, i, index, limitVal, ir.CondUgt, TrapHeapOOB)...)
		}
	} else {
		baseInst := f.InsertBefore(i, ir.Instruction{Op: ir.OpGlobalValue, Typ: addrType, Entity: heap.BaseGV})
		base = f.Inst(baseInst).Result()
		inserted = append(inserted, baseInst)
		if !m.useGuardPages {
			boundInst := f.InsertBefore(i, ir.Instruction{Op: ir.OpGlobalValue, Typ: addrType, Entity: heap.BoundGV})
			bound := f.Inst(boundInst).Result()
			inserted = append(inserted, boundInst)
			limit := f.InsertBefore(i, ir.Instruction{
				Op: ir.OpIaddImm, Typ: addrType, Args: []ir.Value{bound}, Imm: -(offset + size),
			})
			inserted = append(inserted, limit)
			inserted = append(inserted, trapIfEq(f, i, index, f.Inst(limit).Result(), ir.CondUgt, TrapHeapOOB)...)
		}
	}

	withIndex := f.InsertBefore(i, ir.Instruction{Op: ir.OpIadd, Typ: addrType, Args: []ir.Value{base, index}})
	final := f.InsertBefore(i, ir.Instruction{
		Op: ir.OpIaddImm, Typ: addrType, Args: []ir.Value{f.Inst(withIndex).Result()}, Imm: offset,
	})
	inserted = append(inserted, withIndex, final)

	f.ReplaceWithAliases(inst.Result(), f.Inst(final).Result())
	f.Remove(i)
	return inserted
}

// expandGlobalLoad rewrites a GVLoad global_value into the address compute
// for its base plus the actual load, mirroring how GVIAddImm already
// describes addressing without a load.
func (m *Machine) expandGlobalLoad(f *ir.Function, i ir.Inst, inst *ir.Instruction, gv ir.GlobalValueData) []ir.Inst {
	baseInst := f.InsertBefore(i, ir.Instruction{Op: ir.OpGlobalValue, Typ: ir.I64, Entity: gv.Base})
	base := f.Inst(baseInst).Result()
	load := f.InsertBefore(i, ir.Instruction{Op: ir.OpLoad, Typ: inst.Typ, Args: []ir.Value{base}, Imm: gv.Offset})

	f.ReplaceWithAliases(inst.Result(), f.Inst(load).Result())
	f.Remove(i)
	return []ir.Inst{baseInst, load}
}
