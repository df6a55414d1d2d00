// Package spill decides which virtual registers don't fit in physical
// registers for their whole live range: a classic linear-scan sweep over
// merged per-VReg intervals, evicting whichever active interval ends
// furthest in the future when a class runs out of room (Poletto & Sarkar's
// heuristic — the interval least likely to be needed again soonest).
package spill

import (
	"sort"

	"crank/ir"
	"crank/isa"
	"crank/machreg"
	"crank/regalloc/liveness"
)

// interval is one VReg's merged live span and register class.
type interval struct {
	vreg  ir.VReg
	class machreg.Class
	start ir.ProgramPoint
	end   ir.ProgramPoint
}

// Decide returns the set of VRegs that must be spilled to a stack slot for
// at least part of their live range, given info's per-value ranges merged by
// f.VRegOf and the target's allocatable register counts.
func Decide(f *ir.Function, info *liveness.Info, regInfo *isa.RegInfo) map[ir.VReg]bool {
	merged := mergeByVReg(f, info)
	capacity := map[machreg.Class]int{
		machreg.ClassInt:   len(regInfo.Allocatable[machreg.ClassInt]),
		machreg.ClassFloat: len(regInfo.Allocatable[machreg.ClassFloat]),
	}

	spilled := make(map[ir.VReg]bool)
	byClass := make(map[machreg.Class][]*interval)
	for _, iv := range merged {
		byClass[iv.class] = append(byClass[iv.class], iv)
	}

	for class, ivs := range byClass {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
		var active []*interval
		roomFor := capacity[class]
		for _, iv := range ivs {
			active = expireBefore(active, iv.start)
			if len(active)+1 > roomFor && roomFor > 0 {
				sort.Slice(active, func(i, j int) bool { return active[i].end > active[j].end })
				victim := active[0]
				if victim.end > iv.end {
					spilled[victim.vreg] = true
					active[0] = iv
				} else {
					spilled[iv.vreg] = true
					continue
				}
			} else {
				active = append(active, iv)
			}
		}
	}
	return spilled
}

func expireBefore(active []*interval, point ir.ProgramPoint) []*interval {
	out := active[:0]
	for _, a := range active {
		if a.end > point {
			out = append(out, a)
		}
	}
	return out
}

func mergeByVReg(f *ir.Function, info *liveness.Info) map[ir.VReg]*interval {
	out := make(map[ir.VReg]*interval)
	for v, lr := range info.Ranges {
		vr, ok := f.VRegOf[v]
		if !ok {
			continue
		}
		class := classOf(f.ValueType(v))
		iv, ok := out[vr]
		if !ok {
			iv = &interval{vreg: vr, class: class, start: info.Positions.Limit(), end: 0}
			out[vr] = iv
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
	return out
}

func classOf(t ir.Type) machreg.Class {
	if t.IsFloat() {
		return machreg.ClassFloat
	}
	return machreg.ClassInt
}
