package color_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/cfg"
	"crank/ir"
	"crank/isa/amd64"
	"crank/legalize"
	"crank/regalloc/coalesce"
	"crank/regalloc/color"
	"crank/regalloc/liveness"
	"crank/regalloc/reload"
	"crank/regalloc/spill"
	"crank/samples"
)

// runRegalloc replays compile.Function's pass order up to (and including)
// color.Run, without emitting: exactly what a color-only test needs.
func runRegalloc(t *testing.T, f *ir.Function) {
	t.Helper()
	target := amd64.NewConfig()
	require.NoError(t, legalize.Run(f, target))
	mach := target.Machine()

	g := cfg.Build(f)
	coalesce.Run(f, g)
	info := liveness.Compute(f, g)
	spilled := spill.Decide(f, info, mach.RegInfo())
	reload.Run(f, spilled)

	g = cfg.Build(f)
	coalesce.Run(f, g)
	info = liveness.Compute(f, g)
	color.Run(f, g, info, mach)
}

func TestRun_EveryResultAndParamGetsALocation(t *testing.T) {
	for _, s := range samples.All {
		t.Run(s.Name, func(t *testing.T) {
			f := s.Build()
			runRegalloc(t, f)

			for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
				for _, p := range f.BlockParams(b) {
					_, ok := f.Locations[p]
					assert.Truef(t, ok, "block parameter %s has no assigned location", p)
				}
				for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
					for _, r := range f.Inst(i).Results() {
						_, ok := f.Locations[r]
						assert.Truef(t, ok, "result %s of %s has no assigned location", r, f.Inst(i).Op)
					}
				}
			}
		})
	}
}

func TestRun_DividendIsCopiedIntoFixedRAX(t *testing.T) {
	f := samples.SignedDivide()
	runRegalloc(t, f)

	var raw *ir.Instruction
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			if f.Inst(i).Op == ir.OpIDivRaw {
				raw = f.Inst(i)
			}
		}
	}
	require.NotNil(t, raw, "expected legalize to have produced an idiv_raw instruction")

	loc, ok := f.Locations[raw.Args[0]]
	require.True(t, ok)
	assert.Equal(t, amd64.RAX, loc.Reg.Num, "dividend must be copied into rax ahead of idiv_raw")
}
