package cfg

import (
	"sync"

	"crank/ir"
)

type cacheEntry struct {
	gen uint64
	g   *Graph
	dom *DomTree
}

// cache is a sync.Map, not a plain map: a host may compile any number of
// functions concurrently on independent goroutines, and each of those
// goroutines calls Of for its own *ir.Function. The entries never actually
// contend (each key is only ever touched by the one goroutine compiling
// that function), but the map's internal bookkeeping must still be safe
// for concurrent access across distinct keys.
var cache sync.Map // map[*ir.Function]*cacheEntry

// Of returns the cached Graph and DomTree for f, rebuilding them if f's
// layout changed since the last call. entry is f's entry block.
func Of(f *ir.Function, entry ir.Block) (*Graph, *DomTree) {
	gen := f.Generation()
	if v, ok := cache.Load(f); ok {
		e := v.(*cacheEntry)
		if e.gen == gen {
			return e.g, e.dom
		}
	}
	g := Build(f)
	dom := BuildDomTree(g, entry)
	cache.Store(f, &cacheEntry{gen: gen, g: g, dom: dom})
	return g, dom
}

// Forget drops any cached analysis for f, e.g. once compilation of f is
// done and its arena is about to be discarded.
func Forget(f *ir.Function) {
	cache.Delete(f)
}
