// Package liveness computes per-value live ranges over a Function's current
// layout: the classic backward dataflow fixpoint over live-in/live-out
// block sets, refined into per-value program-point segments once the
// per-block sets have converged.
package liveness

import (
	"sort"

	"crank/cfg"
	"crank/ir"

	"github.com/bits-and-blooms/bitset"
)

// Info holds the liveness result: the program-point numbering the ranges
// are expressed in, and the final per-value LiveRange.
type Info struct {
	Positions *ir.Positions
	Ranges    map[ir.Value]*ir.LiveRange
}

// Compute runs liveness analysis over f and returns the result. f.Generation
// must not change between this call and any use of the result.
func Compute(f *ir.Function, g *cfg.Graph) *Info {
	pos := ir.ComputePositions(f)
	values := indexValues(f)

	liveIn := make(map[ir.Block]*bitset.BitSet, f.NumBlocks())
	liveOut := make(map[ir.Block]*bitset.BitSet, f.NumBlocks())
	for _, b := range g.Blocks() {
		liveIn[b] = bitset.New(uint(len(values)))
		liveOut[b] = bitset.New(uint(len(values)))
	}

	blocks := g.Blocks()
	changed := true
	for changed {
		changed = false
		for idx := len(blocks) - 1; idx >= 0; idx-- {
			b := blocks[idx]
			out := bitset.New(uint(len(values)))
			for _, s := range g.Succs(b) {
				out.InPlaceUnion(liveIn[s])
			}
			in := out.Clone()
			killGen(f, b, values, in)
			for _, p := range f.BlockParams(b) {
				in.Clear(uint(values[p]))
			}
			if !in.Equal(liveIn[b]) || !out.Equal(liveOut[b]) {
				liveIn[b] = in
				liveOut[b] = out
				changed = true
			}
		}
	}

	ranges := buildRanges(f, g, pos, values, liveIn, liveOut)
	return &Info{Positions: pos, Ranges: ranges}
}

func indexValues(f *ir.Function) map[ir.Value]int {
	idx := make(map[ir.Value]int)
	next := 0
	add := func(v ir.Value) {
		if _, ok := idx[v]; !ok {
			idx[v] = next
			next++
		}
	}
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for _, p := range f.BlockParams(b) {
			add(p)
		}
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			for _, r := range f.Inst(i).Results() {
				add(r)
			}
		}
	}
	return idx
}

// killGen applies one block's transfer function to `live` in place, walking
// its instructions tail-to-head: a use makes a value live going backward
// (gen), a def ends that liveness (kill). Block parameters are not touched
// here; Compute clears them from the block's live-in set afterwards (they're
// defined at the block header, not by any instruction).
func killGen(f *ir.Function, b ir.Block, values map[ir.Value]int, live *bitset.BitSet) {
	insts := f.InstsOf(b)
	for idx := len(insts) - 1; idx >= 0; idx-- {
		inst := f.Inst(insts[idx])
		for _, r := range inst.Results() {
			live.Clear(uint(values[r]))
		}
		for _, a := range inst.Args {
			if i, ok := values[f.Resolve(a)]; ok {
				live.Set(uint(i))
			}
		}
		for _, t := range inst.Targets {
			for _, a := range t.Args {
				if i, ok := values[f.Resolve(a)]; ok {
					live.Set(uint(i))
				}
			}
		}
	}
}

func buildRanges(
	f *ir.Function, g *cfg.Graph, pos *ir.Positions, values map[ir.Value]int,
	liveIn, liveOut map[ir.Block]*bitset.BitSet,
) map[ir.Value]*ir.LiveRange {
	ranges := make(map[ir.Value]*ir.LiveRange, len(values))
	get := func(v ir.Value) *ir.LiveRange {
		if lr, ok := ranges[v]; ok {
			return lr
		}
		lr := &ir.LiveRange{VReg: ir.VRegNil}
		ranges[v] = lr
		return lr
	}

	// A value live-in at a block but neither defined nor used there (just
	// passing through on its way to a later block) needs its range to span
	// the whole block; the precise per-instruction pass below only ever
	// extends a range at a def or a use, so it can't see that case.
	for _, b := range g.Blocks() {
		start := pos.Block(b)
		end := blockEnd(f, pos, b)
		for v, i := range values {
			if liveIn[b].Test(uint(i)) {
				extend(get(v), start, end)
			}
		}
	}

	// Precise pass: clip/extend each range to the exact [def, last use]
	// span the instruction stream demands, on top of the coarse spans above.
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			defP := pos.Inst(i)
			for _, r := range inst.Results() {
				extend(get(r), defP, defP+1)
			}
			for _, a := range inst.Args {
				v := f.Resolve(a)
				extend(get(v), defPointOf(f, pos, v), pos.Inst(i)+1)
			}
			for _, t := range inst.Targets {
				for _, a := range t.Args {
					v := f.Resolve(a)
					extend(get(v), defPointOf(f, pos, v), pos.Inst(i)+1)
				}
			}
		}
	}

	// Sort each range's segments and merge overlapping or touching ones.
	for _, lr := range ranges {
		segs := lr.Segments
		sort.Slice(segs, func(a, b int) bool { return segs[a].Start < segs[b].Start })
		merged := segs[:0]
		for _, s := range segs {
			if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
				if s.End > merged[n-1].End {
					merged[n-1].End = s.End
				}
				continue
			}
			merged = append(merged, s)
		}
		lr.Segments = merged
	}
	return ranges
}

func defPointOf(f *ir.Function, pos *ir.Positions, v ir.Value) ir.ProgramPoint {
	if b, _, ok := f.ValueBlockParam(v); ok {
		return pos.Block(b)
	}
	return pos.Inst(f.ValueDef(v))
}

func blockEnd(f *ir.Function, pos *ir.Positions, b ir.Block) ir.ProgramPoint {
	if last := f.LastInst(b); last != ir.InstNil {
		return pos.Inst(last) + 1
	}
	return pos.Block(b) + 1
}

func extend(lr *ir.LiveRange, start, end ir.ProgramPoint) {
	if end <= start {
		end = start + 1
	}
	lr.Segments = append(lr.Segments, ir.LiveSegment{Start: start, End: end})
}
