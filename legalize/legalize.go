// Package legalize rewrites a Function's instructions until every one has a
// direct encoding on the target Machine, iterating to a fixpoint: an
// Expand call can introduce instructions that themselves need expanding
// (a global_value load inside a heap bound check).
package legalize

import (
	"crank/internal/cerr"
	"crank/ir"
	"crank/isa"
)

// maxPasses bounds the number of times Run rescans a single block looking
// for work, so a legalizer bug that never converges fails loudly instead of
// hanging.
const maxPasses = 64

// Run legalizes every instruction in f against cfg's Machine, populating
// f.Encodings. It returns a cerr.Unsupported error (an opcode with no
// encoding and no expansion is a front-end bug this package can't repair)
// if a target can neither encode nor expand some instruction; a block that
// never converges panics via cerr.Internal instead.
func Run(f *ir.Function, cfg *isa.Config) error {
	mach := cfg.Machine()
	if f.Encodings == nil {
		f.Encodings = make(map[ir.Inst]ir.Encoding)
	}

	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		if err := legalizeBlock(f, mach, b); err != nil {
			return err
		}
	}
	return nil
}

// legalizeBlock scans b from its head, and whenever an Expand call mutates
// the layout, restarts the scan from the head: the Expand'd instruction is
// gone (freed, possibly reused by a later alloc elsewhere in the function),
// so a saved Inst handle one position ahead would not be safe to resume
// from. Blocks in this pipeline are short enough that rescanning from the
// head is cheap relative to correctness.
func legalizeBlock(f *ir.Function, mach isa.Machine, b ir.Block) error {
	for pass := 0; ; pass++ {
		if pass >= maxPasses {
			cerr.Internal("legalizer did not converge on block %s", b)
		}

		changed := false
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			if _, already := f.Encodings[i]; already {
				continue
			}
			if recipe, ok := mach.SelectRecipe(f, i); ok {
				f.Encodings[i] = ir.Encoding{Recipe: recipe.ID}
				continue
			}
			if _, ok := mach.Expand(f, i); ok {
				changed = true
				break
			}
			return cerr.New(cerr.Unsupported, "opcode %s has no encoding or expansion on this target",
				f.Inst(i).Op).At(cerr.Handle{Space: "inst", Index: uint32(i)}).Err()
		}
		if !changed {
			return nil
		}
	}
}
