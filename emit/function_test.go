package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/compile"
	"crank/ir"
	"crank/isa/amd64"
	"crank/samples"
)

func TestFunction_EmissionIsDeterministic(t *testing.T) {
	target := amd64.NewConfig()
	for _, s := range samples.All {
		t.Run(s.Name, func(t *testing.T) {
			a, err := compile.Function(s.Build(), target, compile.Options{})
			require.NoError(t, err)
			b, err := compile.Function(s.Build(), target, compile.Options{})
			require.NoError(t, err)
			assert.Equal(t, a.Code, b.Code)
			assert.Equal(t, a.Relocations, b.Relocations)
			assert.Equal(t, a.TrapSites, b.TrapSites)
		})
	}
}

func TestFunction_StackMapsAreSortedAndDisjoint(t *testing.T) {
	f := twoCallSite()
	target := amd64.NewConfig()
	result, err := compile.Function(f, target, compile.Options{})
	require.NoError(t, err)
	require.Len(t, result.Safepoints, 2)

	for i := 1; i < len(result.Safepoints); i++ {
		prev, cur := result.Safepoints[i-1], result.Safepoints[i]
		assert.Less(t, prev.PCOffset, cur.PCOffset, "safepoints must be sorted by pc_offset")
		assert.LessOrEqual(t, prev.PCOffset+prev.Length, cur.PCOffset, "safepoint spans must not overlap")
	}
}

// twoCallSite calls the same external function twice in sequence across a
// stack slot live the whole time, producing two distinct call safepoints.
func twoCallSite() *ir.Function {
	f := ir.NewFunction("twocalls", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I64}},
		Results:  []ir.AbiParam{{Type: ir.I64}},
	})
	calleeSig := f.CreateEntity(ir.SignatureData{Signature: ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I64}},
	}})
	callee := f.CreateEntity(ir.ExtFuncData{Name: "touch", Sig: calleeSig, CallConv: ir.CallConvSystemV})
	slot := f.CreateEntity(ir.StackSlotData{Kind: ir.StackSlotExplicit, Size: 8, Align: 3})

	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	ptr := f.BlockParams(entry)[0]
	addr := b.StackAddr(ir.I64, slot, 0)
	b.Store(ptr, addr, 0)
	b.Call(callee)
	b.Call(callee)
	reloaded := b.Load(ir.I64, addr, 0)
	b.Return(reloaded)
	return f
}

func TestFunction_DivideByZeroAndOverflowBothTrapWithUd2(t *testing.T) {
	target := amd64.NewConfig()
	result, err := compile.Function(samples.SignedDivide(), target, compile.Options{})
	require.NoError(t, err)

	ud2Count := 0
	for i := 0; i+1 < len(result.Code); i++ {
		if result.Code[i] == 0x0f && result.Code[i+1] == 0x0b {
			ud2Count++
		}
	}
	assert.Equal(t, 2, ud2Count, "sdiv must trap on both div-by-zero and MIN/-1 overflow")
	assert.Len(t, result.TrapSites, 2)
}

func TestFunction_BranchRelaxationWidensFarConditionalJump(t *testing.T) {
	target := amd64.NewConfig()
	result, err := compile.Function(samples.BranchRelaxation(), target, compile.Options{})
	require.NoError(t, err)

	foundLongJcc := false
	for i := 0; i+1 < len(result.Code); i++ {
		if result.Code[i] == 0x0f && result.Code[i+1] >= 0x80 && result.Code[i+1] <= 0x8f {
			foundLongJcc = true
			break
		}
	}
	assert.True(t, foundLongJcc, "a branch this far forward must have been widened to its rel32 form")
}

func TestFunction_JumpTableDispatchProducesAnAlignedSidecarBlob(t *testing.T) {
	target := amd64.NewConfig()
	result, err := compile.Function(samples.BrTableDispatch(), target, compile.Options{})
	require.NoError(t, err)

	require.Len(t, result.JumpTables, 1)
	jt := result.JumpTables[0]
	assert.Equal(t, 0, jt.Offset%8, "jump-table blob must start 8-byte aligned")
	assert.Len(t, jt.Entries, 4)
	for _, e := range jt.Entries {
		assert.True(t, jt.Offset+int(e) >= 0 && jt.Offset+int(e) < len(result.Code),
			"every table entry must resolve to a byte offset within Code")
	}
}

func TestFunction_JumpTableBoundaries(t *testing.T) {
	target := amd64.NewConfig()
	for _, n := range []int{1, 1 << 16} {
		t.Run("", func(t *testing.T) {
			result, err := compile.Function(wideDispatch(n), target, compile.Options{})
			require.NoError(t, err)
			require.Len(t, result.JumpTables, 1)
			assert.Len(t, result.JumpTables[0].Entries, n)
		})
	}
}

// wideDispatch builds a dispatch function whose jump table has n case
// entries, all pointing at the same block: cheap to construct even at the
// 2^16 boundary, since a br_table's own encoding cost never depends on the
// table's length.
func wideDispatch(n int) *ir.Function {
	f := ir.NewFunction("wide", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	deflt := b.CreateBlock()
	single := b.CreateBlock()

	targets := make([]ir.Block, n)
	for i := range targets {
		targets[i] = single
	}
	table := f.CreateEntity(ir.JumpTableData{Targets: targets})

	b.SwitchToBlock(entry)
	b.BrTable(index, table, deflt, nil)

	b.SwitchToBlock(deflt)
	b.Return(b.Iconst(ir.I32, -1))

	b.SwitchToBlock(single)
	b.Return(b.Iconst(ir.I32, 1))

	return f
}
