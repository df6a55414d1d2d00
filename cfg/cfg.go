// Package cfg computes predecessor lists, postorder, and dominator
// information over a Function's extended basic blocks. It is
// cached on the function by the ir package's invalidation generation
// counter and recomputed whenever the layout changes.
package cfg

import "crank/ir"

// Graph is the successor/predecessor view of one Function's blocks, derived
// from each block's terminator.
type Graph struct {
	f     *ir.Function
	succs map[ir.Block][]ir.Block
	preds map[ir.Block][]ir.Block
	order []ir.Block // layout order, cached for iteration
}

// Build walks f's layout once and records, for every block, its successors
// (from its terminator's branch targets) and predecessors (the inverse).
func Build(f *ir.Function) *Graph {
	g := &Graph{f: f, succs: make(map[ir.Block][]ir.Block), preds: make(map[ir.Block][]ir.Block)}
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		g.order = append(g.order, b)
		g.preds[b] = g.preds[b] // ensure a key exists even with no predecessors
	}
	for _, b := range g.order {
		term := f.LastInst(b)
		if term == ir.InstNil {
			continue // malformed; the verifier reports this, cfg stays best-effort
		}
		inst := f.Inst(term)
		for _, bc := range inst.Targets {
			g.succs[b] = append(g.succs[b], bc.Target)
			g.preds[bc.Target] = append(g.preds[bc.Target], b)
		}
		if inst.Op == ir.OpBrTable {
			if table, ok := f.Entity(inst.Entity).(ir.JumpTableData); ok {
				for _, target := range table.Targets {
					g.succs[b] = append(g.succs[b], target)
					g.preds[target] = append(g.preds[target], b)
				}
			}
		}
	}
	return g
}

// Succs returns b's successor blocks, in terminator target order.
func (g *Graph) Succs(b ir.Block) []ir.Block { return g.succs[b] }

// Preds returns b's predecessor blocks, in the order they were discovered
// while walking the layout.
func (g *Graph) Preds(b ir.Block) []ir.Block { return g.preds[b] }

// Blocks returns every block in layout order.
func (g *Graph) Blocks() []ir.Block { return g.order }

// Postorder returns blocks in postorder starting from entry, visiting each
// reachable block exactly once.
func (g *Graph) Postorder(entry ir.Block) []ir.Block {
	visited := make(map[ir.Block]bool, len(g.order))
	var order []ir.Block
	var visit func(b ir.Block)
	visit = func(b ir.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range g.succs[b] {
			visit(s)
		}
		order = append(order, b)
	}
	visit(entry)
	return order
}

// ReversePostorder returns blocks in reverse postorder from entry.
func (g *Graph) ReversePostorder(entry ir.Block) []ir.Block {
	po := g.Postorder(entry)
	rpo := make([]ir.Block, len(po))
	for i, b := range po {
		rpo[len(po)-1-i] = b
	}
	return rpo
}
