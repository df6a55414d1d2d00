package coalesce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/cfg"
	"crank/ir"
	"crank/regalloc/coalesce"
)

// joinArg builds `function %j(i32) -> i32` where entry jumps to a
// single-parameter block passing its own parameter straight through: the
// branch argument and the target's parameter should end up in the same
// VReg, since nothing ever needs to move between them.
func joinArg() (f *ir.Function, arg, param ir.Value) {
	f = ir.NewFunction("j", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	arg = f.BlockParams(entry)[0]
	target := b.CreateBlock(ir.I32)
	b.Jump(target, arg)

	b.SwitchToBlock(target)
	param = f.BlockParams(target)[0]
	b.Return(param)

	return f, arg, param
}

func TestRun_UnionsBranchArgumentWithTargetParameter(t *testing.T) {
	f, arg, param := joinArg()
	g := cfg.Build(f)
	coalesce.Run(f, g)

	require.Contains(t, f.VRegOf, arg)
	require.Contains(t, f.VRegOf, param)
	assert.Equal(t, f.VRegOf[arg], f.VRegOf[param])
}

func TestRun_UnrelatedValuesGetDistinctVRegs(t *testing.T) {
	f, arg, _ := joinArg()
	g := cfg.Build(f)
	coalesce.Run(f, g)

	entry := f.FirstBlock()
	// The entry block's own parameter is distinct from any constant defined
	// alongside it.
	b := ir.NewBuilder(f)
	b.SwitchToBlock(entry)
	other := b.Iconst(ir.I32, 1)

	g = cfg.Build(f)
	coalesce.Run(f, g)
	assert.NotEqual(t, f.VRegOf[arg], f.VRegOf[other])
}
