package verify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/ir"
	"crank/samples"
	"crank/verify"
)

func TestRun_AcceptsEverySample(t *testing.T) {
	for _, s := range samples.All {
		t.Run(s.Name, func(t *testing.T) {
			assert.NoError(t, verify.Run(s.Build()))
		})
	}
}

func TestRun_RejectsEmptyFunction(t *testing.T) {
	f := ir.NewFunction("empty", ir.Signature{CallConv: ir.CallConvSystemV})
	assert.Error(t, verify.Run(f))
}

func TestRun_RejectsMissingTerminator(t *testing.T) {
	f := ir.NewFunction("notail", ir.Signature{CallConv: ir.CallConvSystemV, Results: []ir.AbiParam{{Type: ir.I32}}})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	b.Iconst(ir.I32, 7) // block never gets a terminator appended
	assert.Error(t, verify.Run(f))
}

func TestRun_RejectsBranchArgArityMismatch(t *testing.T) {
	f := ir.NewFunction("badarity", ir.Signature{CallConv: ir.CallConvSystemV})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	target := b.CreateBlock(ir.I32) // expects one argument
	b.Jump(target)                  // supplies none
	b.SwitchToBlock(target)
	b.Return()
	err := verify.Run(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplies 0 arguments")
}

func TestRun_RejectsBranchArgTypeMismatch(t *testing.T) {
	f := ir.NewFunction("badtype", ir.Signature{CallConv: ir.CallConvSystemV})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	target := b.CreateBlock(ir.I32)
	wrong := b.Iconst(ir.F32, 0)
	b.Jump(target, wrong)
	b.SwitchToBlock(target)
	b.Return()
	err := verify.Run(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects")
}

func TestRun_RejectsDominanceViolation(t *testing.T) {
	f := ir.NewFunction("usebeforedef", ir.Signature{CallConv: ir.CallConvSystemV, Results: []ir.AbiParam{{Type: ir.I32}}})
	entry := f.NewBlock()
	f.AppendBlock(entry)
	other := f.NewBlock()
	f.AppendBlock(other)

	// A value defined in a later block, used from the entry: never
	// dominates, however the layout orders the two blocks.
	defInst := f.AppendInst(other, ir.Instruction{Op: ir.OpIconst, Typ: ir.I32, Imm: 1})
	v := f.Inst(defInst).Result()
	f.AppendInst(entry, ir.Instruction{Op: ir.OpReturn, Args: []ir.Value{v}})
	f.AppendInst(other, ir.Instruction{Op: ir.OpReturn, Args: []ir.Value{v}})

	assert.Error(t, verify.Run(f))
}

func TestRun_RejectsJumpTableEntityOfWrongKind(t *testing.T) {
	f := ir.NewFunction("badtable", ir.Signature{CallConv: ir.CallConvSystemV, Params: []ir.AbiParam{{Type: ir.I32}}})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	deflt := b.CreateBlock()

	notATable := f.CreateEntity(ir.HeapData{Kind: ir.HeapStatic, Bound: 1})
	b.BrTable(index, notATable, deflt, nil)

	b.SwitchToBlock(deflt)
	b.Return()

	err := verify.Run(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a jump_table")
}

func TestRun_RejectsEmptyJumpTable(t *testing.T) {
	f := ir.NewFunction("emptytable", ir.Signature{CallConv: ir.CallConvSystemV, Params: []ir.AbiParam{{Type: ir.I32}}})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	deflt := b.CreateBlock()

	table := f.CreateEntity(ir.JumpTableData{})
	b.BrTable(index, table, deflt, nil)

	b.SwitchToBlock(deflt)
	b.Return()

	err := verify.Run(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no case targets")
}

func TestRun_RejectsJumpTableCaseWithArguments(t *testing.T) {
	f := ir.NewFunction("tableargs", ir.Signature{CallConv: ir.CallConvSystemV, Params: []ir.AbiParam{{Type: ir.I32}}})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	deflt := b.CreateBlock()
	caseBlock := b.CreateBlock(ir.I32) // case targets must take no arguments

	table := f.CreateEntity(ir.JumpTableData{Targets: []ir.Block{caseBlock}})
	b.BrTable(index, table, deflt, nil)

	b.SwitchToBlock(deflt)
	b.Return()
	b.SwitchToBlock(caseBlock)
	b.Return()

	err := verify.Run(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects arguments")
}
