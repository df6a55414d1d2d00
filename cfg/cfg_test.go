package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crank/cfg"
	"crank/ir"
	"crank/samples"
)

func TestBuild_BrTableSuccessorsIncludeEveryCaseAndDefault(t *testing.T) {
	f := samples.BrTableDispatch()
	g := cfg.Build(f)

	entry := f.FirstBlock()
	succs := g.Succs(entry)
	require.Len(t, succs, 5) // default + 4 cases

	for _, succ := range succs {
		preds := g.Preds(succ)
		assert.Contains(t, preds, entry)
	}
}

func TestBuild_BrifHasTrueAndFalseSuccessors(t *testing.T) {
	f := samples.BranchRelaxation()
	g := cfg.Build(f)
	entry := f.FirstBlock()
	assert.Len(t, g.Succs(entry), 2)
}

func TestDomTree_BranchTargetsAreDominatedByEntry(t *testing.T) {
	f := samples.BranchRelaxation()
	entry := f.FirstBlock()
	_, dom := cfg.Of(f, entry)
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		assert.True(t, dom.Dominates(entry, b), "entry should dominate every block of the function")
	}
}

func TestPostorder_VisitsEachReachableBlockOnce(t *testing.T) {
	f := samples.BrTableDispatch()
	g := cfg.Build(f)
	entry := f.FirstBlock()
	po := g.Postorder(entry)

	seen := make(map[ir.Block]bool)
	for _, b := range po {
		assert.Falsef(t, seen[b], "block %s visited twice in postorder", b)
		seen[b] = true
	}
	assert.Len(t, po, len(g.Blocks()))
}
