package emit

import (
	"sort"

	"crank/ir"
)

// frame is the result of laying out every stack-slot entity a function
// declares (front-end explicit slots and the spiller's own slots alike)
// into one contiguous, frame-pointer-relative region.
type frame struct {
	size     int32
	explicit map[ir.Entity]int32 // StackSlotExplicit entities only, for stack maps
}

// layoutFrame assigns StackSlotData.Offset for every stack-slot entity f
// declares, widest-alignment-first to minimize padding, and writes the
// assignment back via SetEntity so Emit's f.Entity lookups see it. Offsets
// are negative (locals below the frame pointer, the standard x86-64 shape);
// size is rounded up to a 16-byte boundary for the prologue's sub rsp.
func layoutFrame(f *ir.Function) *frame {
	type slotEntity struct {
		entity ir.Entity
		data   ir.StackSlotData
	}
	var slots []slotEntity
	f.EachEntity(func(e ir.Entity, d ir.EntityData) bool {
		if sd, ok := d.(ir.StackSlotData); ok {
			slots = append(slots, slotEntity{e, sd})
		}
		return true
	})
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].data.Align > slots[j].data.Align })

	var offset int32
	explicit := make(map[ir.Entity]int32)
	for _, s := range slots {
		align := int32(1) << s.data.Align
		offset += int32(s.data.Size)
		if rem := offset % align; rem != 0 {
			offset += align - rem
		}
		s.data.Offset = -offset
		f.SetEntity(s.entity, s.data)
		if s.data.Kind == ir.StackSlotExplicit {
			explicit[s.entity] = s.data.Offset
		}
	}
	if rem := offset % 16; rem != 0 {
		offset += 16 - rem
	}
	return &frame{size: offset, explicit: explicit}
}
