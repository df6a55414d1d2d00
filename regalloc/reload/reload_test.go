package reload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crank/cfg"
	"crank/ir"
	"crank/regalloc/coalesce"
	"crank/regalloc/reload"
)

func TestRun_InsertsSpillAfterDefAndFillBeforeUse(t *testing.T) {
	f := ir.NewFunction("reload", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	v0 := b.Iconst(ir.I32, 41)
	v1 := b.IaddImm(v0, 1)
	b.Return(v1)

	g := cfg.Build(f)
	coalesce.Run(f, g)

	vr0 := f.VRegOf[v0]
	reload.Run(f, map[ir.VReg]bool{vr0: true})

	entry := f.FirstBlock()
	var ops []ir.Opcode
	for i := f.FirstInst(entry); i != ir.InstNil; i = f.NextInst(i) {
		ops = append(ops, f.Inst(i).Op)
	}

	assert.Contains(t, ops, ir.OpSpill)
	assert.Contains(t, ops, ir.OpFill)

	// the iadd_imm must no longer reference v0 directly: reload.Run rewrites
	// the use to the Fill's own result.
	for i := f.FirstInst(entry); i != ir.InstNil; i = f.NextInst(i) {
		inst := f.Inst(i)
		if inst.Op == ir.OpIaddImm {
			assert.NotEqual(t, v0, inst.Args[0])
		}
	}
}

func TestRun_NoopWhenNothingSpilled(t *testing.T) {
	f := ir.NewFunction("noop", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	v0 := b.Iconst(ir.I32, 7)
	b.Return(v0)

	entry := f.FirstBlock()
	before := 0
	for i := f.FirstInst(entry); i != ir.InstNil; i = f.NextInst(i) {
		before++
	}

	reload.Run(f, nil)

	after := 0
	for i := f.FirstInst(entry); i != ir.InstNil; i = f.NextInst(i) {
		after++
	}
	assert.Equal(t, before, after)
}
