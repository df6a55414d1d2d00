package liveness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/cfg"
	"crank/ir"
	"crank/regalloc/liveness"
)

// diamond builds `function %d(i32) -> i32` with a parameter used in both
// arms of a branch, so the value's live range must cross a block boundary,
// and returns the branch condition too (live only within the entry block).
func diamond() (f *ir.Function, v0, cond ir.Value) {
	f = ir.NewFunction("d", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	v0 = f.BlockParams(entry)[0]
	left := b.CreateBlock()
	right := b.CreateBlock()

	zero := b.Iconst(ir.I32, 0)
	cond = b.Icmp(ir.CondEq, v0, zero)
	b.Brif(cond, left, nil, right, nil)

	b.SwitchToBlock(left)
	b.Return(v0)

	b.SwitchToBlock(right)
	b.Return(v0)

	return f, v0, cond
}

func TestCompute_ValueLiveAcrossBothBranchArms(t *testing.T) {
	f, v0, _ := diamond()
	g := cfg.Build(f)
	info := liveness.Compute(f, g)

	require.Contains(t, info.Ranges, v0)
	lr := info.Ranges[v0]

	entry := f.FirstBlock()
	left := f.NextBlock(entry)
	right := f.NextBlock(left)

	assert.True(t, lr.LiveAt(info.Positions.Block(left)))
	assert.True(t, lr.LiveAt(info.Positions.Block(right)))
}

func TestCompute_ConditionNotLiveBeyondEntryBlock(t *testing.T) {
	f, _, cond := diamond()
	g := cfg.Build(f)
	info := liveness.Compute(f, g)

	require.Contains(t, info.Ranges, cond)
	lr := info.Ranges[cond]

	entry := f.FirstBlock()
	left := f.NextBlock(entry)
	right := f.NextBlock(left)

	assert.False(t, lr.LiveAt(info.Positions.Block(left)))
	assert.False(t, lr.LiveAt(info.Positions.Block(right)))
}
