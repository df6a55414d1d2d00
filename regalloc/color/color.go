// Package color assigns a physical register (or, for anything reload left
// spilled at a given point, there simply is none live there to assign) to
// every VReg, then applies each instruction's isa.OperandConstraints: a
// two-operand tied form gets an explicit copy of its first input into the
// result's register, since x86's destructive RR encoding needs that input
// already resident there by the time Emit runs; a fixed-register operand
// gets a copy into that exact register, and a fixed-register result is
// assigned that register directly, with no copy out of it.
package color

import (
	"sort"

	"crank/cfg"
	"crank/internal/cerr"
	"crank/ir"
	"crank/isa"
	"crank/machreg"
	"crank/regalloc/liveness"
)

// Run walks f in dominator-tree order, assigns f.Locations for every VReg,
// and rewrites tied/fixed-register operands into the copies the chosen
// assignment demands.
func Run(f *ir.Function, g *cfg.Graph, info *liveness.Info, mach isa.Machine) {
	if f.Locations == nil {
		f.Locations = make(map[ir.Value]ir.ValueLoc)
	}
	regInfo := mach.RegInfo()
	assign := assignRegisters(f, info, regInfo)

	entry := f.FirstBlock()
	dt := cfg.BuildDomTree(g, entry)
	for _, b := range dt.ReversePostorder() {
		for _, p := range f.BlockParams(b) {
			locate(f, p, assign)
		}
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			for _, r := range inst.Results() {
				locate(f, r, assign)
			}
			applyConstraints(f, i, inst, mach, regInfo)
		}
	}
}

func locate(f *ir.Function, v ir.Value, assign map[ir.VReg]machreg.Reg) {
	vr, ok := f.VRegOf[v]
	if !ok {
		return
	}
	reg, ok := assign[vr]
	if !ok {
		return // spilled for its whole range; never occupies a register
	}
	f.Locations[v] = ir.ValueLoc{Kind: ir.LocReg, Reg: reg}
}

// assignRegisters runs one linear-scan sweep per class over merged per-VReg
// intervals (mirroring spill.Decide's sweep, now actually handing out
// registers instead of flagging overflow). Running out of free registers
// here means reload didn't spill enough to relieve pressure — an internal
// bug in this pipeline, not a condition a caller can recover from.
func assignRegisters(f *ir.Function, info *liveness.Info, regInfo *isa.RegInfo) map[ir.VReg]machreg.Reg {
	type interval struct {
		vreg  ir.VReg
		class machreg.Class
		start ir.ProgramPoint
		end   ir.ProgramPoint
	}
	merged := make(map[ir.VReg]*interval)
	for v, lr := range info.Ranges {
		vr, ok := f.VRegOf[v]
		if !ok {
			continue
		}
		t := f.ValueType(v)
		class := machreg.ClassInt
		if t.IsFloat() {
			class = machreg.ClassFloat
		}
		iv, ok := merged[vr]
		if !ok {
			iv = &interval{vreg: vr, class: class, start: info.Positions.Limit(), end: 0}
			merged[vr] = iv
		}
		for _, seg := range lr.Segments {
			if seg.Start < iv.start {
				iv.start = seg.Start
			}
			if seg.End > iv.end {
				iv.end = seg.End
			}
		}
	}

	assign := make(map[ir.VReg]machreg.Reg)
	byClass := make(map[machreg.Class][]*interval)
	for _, iv := range merged {
		byClass[iv.class] = append(byClass[iv.class], iv)
	}

	for class, ivs := range byClass {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
		pool := regInfo.Allocatable[class]
		type active struct {
			iv  *interval
			reg machreg.Reg
		}
		var live []active
		free := append([]machreg.Reg(nil), pool...)
		for _, iv := range ivs {
			kept := live[:0]
			for _, a := range live {
				if a.iv.end > iv.start {
					kept = append(kept, a)
				} else {
					free = append(free, a.reg)
				}
			}
			live = kept
			if len(free) == 0 {
				cerr.Internal("color: no free %s register for vreg%d; reload under-spilled", class, iv.vreg)
			}
			reg := free[len(free)-1]
			free = free[:len(free)-1]
			assign[iv.vreg] = reg
			live = append(live, active{iv: iv, reg: reg})
		}
	}
	return assign
}

// applyConstraints rewrites i's tied and fixed-register operands into the
// explicit copies the assignment above requires. It is a no-op for
// instructions with no encoding yet (legalize always runs first in this
// pipeline, so that shouldn't happen).
func applyConstraints(f *ir.Function, i ir.Inst, inst *ir.Instruction, mach isa.Machine, regInfo *isa.RegInfo) {
	enc, ok := f.Encodings[i]
	if !ok {
		return
	}
	recipe := isa.Recipe{ID: enc.Recipe}
	c := mach.ConstraintsFor(recipe)

	for resultIdx, argIdx := range c.TiedOutToIn {
		if argIdx < 0 || argIdx >= len(inst.Args) || resultIdx >= len(inst.Results()) {
			continue
		}
		result := inst.Results()[resultIdx]
		resultLoc, ok := f.Locations[result]
		if !ok {
			continue
		}
		arg := inst.Args[argIdx]
		argLoc, ok := f.Locations[f.Resolve(arg)]
		if ok && argLoc.Reg == resultLoc.Reg {
			continue // already coalesced onto the same register; no copy needed
		}
		h := f.InsertBefore(i, ir.Instruction{Op: ir.OpCopy, Typ: f.ValueType(arg), Args: []ir.Value{arg}})
		cv := f.Inst(h).Result()
		f.Locations[cv] = resultLoc
		encodeCopy(f, mach, h)
		inst.Args[argIdx] = cv
	}

	for argIdx, fixed := range c.FixedIns {
		if fixed < 0 || argIdx >= len(inst.Args) {
			continue
		}
		fixedReg := regForFixed(regInfo, fixed)
		arg := inst.Args[argIdx]
		loc, ok := f.Locations[f.Resolve(arg)]
		if ok && loc.Reg.Num == fixedReg.Num && loc.Reg.Class == fixedReg.Class {
			continue
		}
		h := f.InsertBefore(i, ir.Instruction{Op: ir.OpCopy, Typ: f.ValueType(arg), Args: []ir.Value{arg}})
		cv := f.Inst(h).Result()
		f.Locations[cv] = ir.ValueLoc{Kind: ir.LocReg, Reg: fixedReg}
		encodeCopy(f, mach, h)
		inst.Args[argIdx] = cv
	}

	for resultIdx, fixed := range c.FixedOuts {
		if fixed < 0 || resultIdx >= len(inst.Results()) {
			continue
		}
		result := inst.Results()[resultIdx]
		f.Locations[result] = ir.ValueLoc{Kind: ir.LocReg, Reg: regForFixed(regInfo, fixed)}
	}
}

// encodeCopy assigns h (a copy inserted after legalize already ran) the
// recipe its Machine would have picked had it seen this opcode during
// legalization. Every target this module supports can directly encode a
// register-to-register copy, so SelectRecipe is expected to succeed here.
func encodeCopy(f *ir.Function, mach isa.Machine, h ir.Inst) {
	if f.Encodings == nil {
		f.Encodings = make(map[ir.Inst]ir.Encoding)
	}
	if recipe, ok := mach.SelectRecipe(f, h); ok {
		f.Encodings[h] = ir.Encoding{Recipe: recipe.ID}
	}
}

// regForFixed resolves a raw register number from an OperandConstraints
// table into a full machreg.Reg (with its allocation units), by searching
// every class's Allocatable list. A fixed register the target reserves
// entirely for ABI glue (never handed to the colorer) falls back to a bare
// int-class Reg with no Units data; this target fixes only general-purpose
// registers (rax/rdx/rcx), so that fallback never actually triggers.
func regForFixed(regInfo *isa.RegInfo, num int16) machreg.Reg {
	want := machreg.Real(num)
	for class, regs := range regInfo.Allocatable {
		for _, r := range regs {
			if r.Class == class && r.Num == want {
				return r
			}
		}
	}
	return machreg.Reg{Class: machreg.ClassInt, Num: want}
}
