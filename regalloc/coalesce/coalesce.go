// Package coalesce assigns every SSA Value a VReg, unioning a block
// parameter with every argument its predecessors pass it: the common case
// where a branch's argument is (transitively) the same value the target
// expects needs no move at all once those values share one VReg, which is
// exactly what the later coloring pass assigns a single location to.
package coalesce

import (
	"crank/cfg"
	"crank/ir"

	"github.com/samber/lo"
)

// unionFind is a minimal disjoint-set over ir.Value, path-compressing on
// Find so repeated lookups after many Unions stay near O(1).
type unionFind struct {
	parent map[ir.Value]ir.Value
}

func newUnionFind() *unionFind { return &unionFind{parent: make(map[ir.Value]ir.Value)} }

func (u *unionFind) find(v ir.Value) ir.Value {
	p, ok := u.parent[v]
	if !ok {
		u.parent[v] = v
		return v
	}
	if p == v {
		return v
	}
	root := u.find(p)
	u.parent[v] = root
	return root
}

func (u *unionFind) union(a, b ir.Value) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// Run assigns f.VRegOf for every live value, grouping a block parameter with
// every branch argument supplied for it (after alias resolution, so a value
// the legalizer replaced coalesces under its replacement).
func Run(f *ir.Function, g *cfg.Graph) {
	uf := newUnionFind()
	var all []ir.Value

	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for _, p := range f.BlockParams(b) {
			uf.find(p)
			all = append(all, p)
		}
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			for _, r := range inst.Results() {
				uf.find(r)
				all = append(all, r)
			}
			for _, t := range inst.Targets {
				target := f.BlockParams(t.Target)
				for idx, arg := range t.Args {
					if idx >= len(target) {
						continue
					}
					uf.union(f.Resolve(arg), target[idx])
				}
			}
		}
	}

	all = lo.Uniq(all)
	if f.VRegOf == nil {
		f.VRegOf = make(map[ir.Value]ir.VReg, len(all))
	}
	roots := make(map[ir.Value]ir.VReg)
	next := ir.VReg(0)
	for _, v := range all {
		root := uf.find(v)
		vr, ok := roots[root]
		if !ok {
			vr = next
			next++
			roots[root] = vr
		}
		f.VRegOf[v] = vr
	}
}
