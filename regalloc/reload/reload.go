// Package reload rewrites a Function so that every spilled VReg only ever
// occupies a physical register for the span of a single use or def: a Fill
// materializes it from its stack slot immediately before each use, and a
// Spill writes it back immediately after its def. This is the classic
// "spill everywhere" simplification — it gives up some reload traffic a
// smarter allocator would avoid, in exchange for a coloring pass that never
// has to reason about long, spill-partitioned intervals.
package reload

import (
	"crank/ir"
)

// Run rewrites f in place for every VReg spilled marks true, creating one
// spill stack slot per spilled VReg the first time it's touched.
func Run(f *ir.Function, spilled map[ir.VReg]bool) {
	if len(spilled) == 0 {
		return
	}
	slots := make(map[ir.VReg]ir.Entity)

	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for _, p := range f.BlockParams(b) {
			spillParamIfNeeded(f, b, p, spilled, slots)
		}
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			if inst.Op == ir.OpSpill {
				continue // inserted above; its argument is the def itself, not a reload
			}
			reloadArgs(f, i, inst, spilled, slots)
			spillResults(f, i, inst, spilled, slots)
		}
	}
}

func slotFor(f *ir.Function, v ir.Value, vr ir.VReg, slots map[ir.VReg]ir.Entity) ir.Entity {
	if e, ok := slots[vr]; ok {
		return e
	}
	e := f.CreateEntity(ir.StackSlotData{
		Kind:  ir.StackSlotSpill,
		Size:  f.ValueType(v).SizeBytes(),
		Align: 3, // 8-byte aligned; simple and correct for every scalar type this target handles
	})
	slots[vr] = e
	return e
}

// spillResults inserts an OpSpill immediately after any result inst defines
// that's spilled, so the value is in memory before any later Fill needs it.
func spillResults(f *ir.Function, i ir.Inst, inst *ir.Instruction, spilled map[ir.VReg]bool, slots map[ir.VReg]ir.Entity) {
	for _, r := range inst.Results() {
		vr, ok := f.VRegOf[r]
		if !ok || !spilled[vr] {
			continue
		}
		slot := slotFor(f, r, vr, slots)
		f.InsertAfter(i, ir.Instruction{Op: ir.OpSpill, Typ: f.ValueType(r), Args: []ir.Value{r}, Entity: slot})
	}
}

// spillParamIfNeeded does the same for a block parameter: spilled right at
// the block header, before its first use.
func spillParamIfNeeded(f *ir.Function, b ir.Block, p ir.Value, spilled map[ir.VReg]bool, slots map[ir.VReg]ir.Entity) {
	vr, ok := f.VRegOf[p]
	if !ok || !spilled[vr] {
		return
	}
	slot := slotFor(f, p, vr, slots)
	first := f.FirstInst(b)
	spillInst := ir.Instruction{Op: ir.OpSpill, Typ: f.ValueType(p), Args: []ir.Value{p}, Entity: slot}
	if first == ir.InstNil {
		f.AppendInst(b, spillInst)
	} else {
		f.InsertBefore(first, spillInst)
	}
}

// reloadArgs inserts an OpFill immediately before i for every spilled
// argument it reads (directly, or through a branch argument), replacing the
// reference with the Fill's fresh result so the instruction itself never
// sees a spilled VReg.
func reloadArgs(f *ir.Function, i ir.Inst, inst *ir.Instruction, spilled map[ir.VReg]bool, slots map[ir.VReg]ir.Entity) {
	for idx, a := range inst.Args {
		inst.Args[idx] = reloadOne(f, i, a, spilled, slots)
	}
	for tIdx := range inst.Targets {
		for idx, a := range inst.Targets[tIdx].Args {
			inst.Targets[tIdx].Args[idx] = reloadOne(f, i, a, spilled, slots)
		}
	}
}

func reloadOne(f *ir.Function, before ir.Inst, v ir.Value, spilled map[ir.VReg]bool, slots map[ir.VReg]ir.Entity) ir.Value {
	resolved := f.Resolve(v)
	vr, ok := f.VRegOf[resolved]
	if !ok || !spilled[vr] {
		return v
	}
	slot, ok := slots[vr]
	if !ok {
		// Spilled on a path that never defined it before this use is a
		// front-end/legalizer bug (an undefined value reached a use); the
		// verifier is responsible for catching that before reload runs.
		return v
	}
	h := f.InsertBefore(before, ir.Instruction{Op: ir.OpFill, Typ: f.ValueType(resolved), Entity: slot})
	return f.Inst(h).Result()
}
