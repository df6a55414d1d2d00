package legalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/ir"
	"crank/isa/amd64"
	"crank/legalize"
	"crank/samples"
)

func TestRun_EncodesEveryInstructionInEverySample(t *testing.T) {
	target := amd64.NewConfig()
	for _, s := range samples.All {
		t.Run(s.Name, func(t *testing.T) {
			f := s.Build()
			require.NoError(t, legalize.Run(f, target))
			for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
				for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
					_, ok := f.Encodings[i]
					assert.Truef(t, ok, "instruction %s (%s) has no recorded encoding", i, f.Inst(i).Op)
				}
			}
		})
	}
}

// sdiv/udiv/icmp never have a direct recipe: legalize must rewrite every one
// of them away into idiv_raw/udiv_raw and flags_cmp/brif_flags before the
// function is left in final form.
func TestRun_ExpandsMachineIndependentOpsAway(t *testing.T) {
	target := amd64.NewConfig()
	f := samples.SignedDivide()
	require.NoError(t, legalize.Run(f, target))

	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			op := f.Inst(i).Op
			assert.NotEqual(t, ir.OpSdiv, op)
			assert.NotEqual(t, ir.OpUdiv, op)
			assert.NotEqual(t, ir.OpIcmp, op)
		}
	}
}
