package spill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crank/cfg"
	"crank/ir"
	"crank/isa"
	"crank/machreg"
	"crank/regalloc/coalesce"
	"crank/regalloc/liveness"
	"crank/regalloc/spill"
)

// oneIntReg is a RegInfo with a single allocatable integer register: any
// function with more than one simultaneously live i32 value must spill.
func oneIntReg() *isa.RegInfo {
	return &isa.RegInfo{
		Allocatable: map[machreg.Class][]machreg.Reg{
			machreg.ClassInt: {{Class: machreg.ClassInt, Num: 0, Units: []machreg.Unit{0}}},
		},
	}
}

// manyLive builds a function that holds four i32 constants live
// simultaneously (all summed into the return), forcing register pressure
// well past a single allocatable register.
func manyLive() *ir.Function {
	f := ir.NewFunction("pressure", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	v0 := b.Iconst(ir.I32, 1)
	v1 := b.Iconst(ir.I32, 2)
	v2 := b.Iconst(ir.I32, 3)
	v3 := b.Iconst(ir.I32, 4)
	s0 := b.Iadd(v0, v1)
	s1 := b.Iadd(v2, v3)
	s2 := b.Iadd(s0, s1)
	b.Return(s2)
	return f
}

func TestDecide_SpillsUnderRegisterPressure(t *testing.T) {
	f := manyLive()
	g := cfg.Build(f)
	coalesce.Run(f, g)
	info := liveness.Compute(f, g)

	spilled := spill.Decide(f, info, oneIntReg())
	assert.NotEmpty(t, spilled)
}

func TestDecide_NoSpillWithAmpleRegisters(t *testing.T) {
	f := manyLive()
	g := cfg.Build(f)
	coalesce.Run(f, g)
	info := liveness.Compute(f, g)

	ample := &isa.RegInfo{Allocatable: map[machreg.Class][]machreg.Reg{
		machreg.ClassInt: make([]machreg.Reg, 16),
	}}
	for i := range ample.Allocatable[machreg.ClassInt] {
		ample.Allocatable[machreg.ClassInt][i] = machreg.Reg{Class: machreg.ClassInt, Num: machreg.Real(i), Units: []machreg.Unit{machreg.Unit(i)}}
	}

	spilled := spill.Decide(f, info, ample)
	assert.Empty(t, spilled)
}
