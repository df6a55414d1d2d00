package amd64_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/ir"
	"crank/isa"
	"crank/isa/amd64"
)

func TestSelectRecipe_BranchOpsStartAtShortForms(t *testing.T) {
	f := ir.NewFunction("br", ir.Signature{CallConv: ir.CallConvSystemV})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	target := b.CreateBlock()
	b.Jump(target)
	b.SwitchToBlock(target)
	b.Return()

	m := amd64.New()
	jumpInst := f.LastInst(entry)
	recipe, ok := m.SelectRecipe(f, jumpInst)
	require.True(t, ok)
	assert.Equal(t, amd64.RecipeJmpShort, recipe.ID)
	assert.True(t, recipe.Relaxable)
}

func TestSelectRecipe_BrTableIsFixedSizeAndNotRelaxable(t *testing.T) {
	f := ir.NewFunction("disp", ir.Signature{CallConv: ir.CallConvSystemV, Params: []ir.AbiParam{{Type: ir.I32}}})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	deflt := b.CreateBlock()
	c0 := b.CreateBlock()
	table := f.CreateEntity(ir.JumpTableData{Targets: []ir.Block{c0}})
	b.BrTable(index, table, deflt, nil)
	b.SwitchToBlock(deflt)
	b.Return()
	b.SwitchToBlock(c0)
	b.Return()

	m := amd64.New()
	last := f.LastInst(entry)
	recipe, ok := m.SelectRecipe(f, last)
	require.True(t, ok)
	assert.Equal(t, amd64.RecipeBrTable, recipe.ID)
	assert.False(t, recipe.Relaxable)
	assert.Equal(t, 28, recipe.Size)
}

func TestRelax_WidensEveryShortBranchRecipe(t *testing.T) {
	m := amd64.New()
	cases := []struct {
		short, long uint16
		longSize    int
	}{
		{amd64.RecipeJmpShort, amd64.RecipeJmpLong, 5},
		{amd64.RecipeJccFlagsShort, amd64.RecipeJccFlagsLong, 6},
		{amd64.RecipeJccRegShort, amd64.RecipeJccRegLong, 9},
	}
	for _, c := range cases {
		short := isa.Recipe{ID: c.short, Relaxable: true}
		long := m.Relax(short)
		assert.Equal(t, c.long, long.ID)
		assert.Equal(t, c.longSize, long.Size)
		assert.False(t, long.Relaxable, "a relaxed recipe must never itself be relaxable")
	}
}

func TestConstraintsFor_BrTablePinsIndexToRCXAndClobbersScratch(t *testing.T) {
	m := amd64.New()
	c := m.ConstraintsFor(isa.Recipe{ID: amd64.RecipeBrTable})
	amd64RCX := int16(amd64.RCX)
	require.NotEmpty(t, c.FixedIns)
	assert.Equal(t, amd64RCX, c.FixedIns[0])
	assert.Contains(t, c.ClobberedRegs, int16(amd64.RAX))
	assert.Contains(t, c.ClobberedRegs, int16(amd64.RDX))
}
