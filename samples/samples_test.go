package samples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/ir"
)

func TestFind(t *testing.T) {
	for _, s := range All {
		assert.NotNil(t, Find(s.Name))
	}
	assert.Nil(t, Find("does-not-exist"))
}

func TestIncrementOne_SignatureRoundTrips(t *testing.T) {
	fn := IncrementOne()
	require.Len(t, fn.Signature.Params, 1)
	require.Len(t, fn.Signature.Results, 1)
	assert.Equal(t, ir.I32, fn.Signature.Params[0].Type)
	assert.Equal(t, ir.I32, fn.Signature.Results[0].Type)
}

func TestBrTableDispatch_DeclaresOneJumpTableWithFourCases(t *testing.T) {
	fn := BrTableDispatch()
	count := 0
	fn.EachEntity(func(e ir.Entity, d ir.EntityData) bool {
		if jt, ok := d.(ir.JumpTableData); ok {
			count++
			assert.Len(t, jt.Targets, 4)
		}
		return true
	})
	assert.Equal(t, 1, count)
}

func TestBranchRelaxation_FarBlockIsLastInLayout(t *testing.T) {
	fn := BranchRelaxation()
	last := fn.FirstBlock()
	for next := fn.NextBlock(last); next != ir.BlockNil; next = fn.NextBlock(next) {
		last = next
	}
	term := fn.Inst(fn.LastInst(last)).Op
	assert.Equal(t, ir.OpReturn, term)
}

func TestCallWithStackMap_DeclaresOneExplicitSlot(t *testing.T) {
	fn := CallWithStackMap()
	count := 0
	fn.EachEntity(func(e ir.Entity, d ir.EntityData) bool {
		if sd, ok := d.(ir.StackSlotData); ok && sd.Kind == ir.StackSlotExplicit {
			count++
		}
		return true
	})
	assert.Equal(t, 1, count)
}
