// Package verify implements the single-pass, read-only verifier: it walks
// a Function and reports the first invariant violation found, attached to
// the offending entity handle. It never repairs anything, and is always
// safe to run, idempotent, and pure.
package verify

import (
	"fmt"

	"crank/cfg"
	"crank/internal/cerr"
	"crank/ir"
)

// Run verifies f, returning the first invariant violation found, or nil if
// f is well-formed.
func Run(f *ir.Function) error {
	if f.FirstBlock() == ir.BlockNil {
		return fail(ir.BlockNil, "function has no blocks")
	}

	if err := checkEntrySignature(f); err != nil {
		return err
	}
	if err := checkTerminators(f); err != nil {
		return err
	}
	if err := checkBranchArgs(f); err != nil {
		return err
	}
	if err := checkJumpTables(f); err != nil {
		return err
	}
	if err := checkDominance(f); err != nil {
		return err
	}
	if err := checkFlags(f); err != nil {
		return err
	}
	if err := checkEntitiesAcyclic(f); err != nil {
		return err
	}
	return nil
}

func fail(h fmt.Stringer, format string, args ...any) error {
	return cerr.New(cerr.Verifier, format, args...).At(handleOf(h)).Err()
}

func handleOf(h fmt.Stringer) cerr.Handle {
	switch v := h.(type) {
	case ir.Block:
		return cerr.Handle{Space: "block", Index: uint32(v)}
	case ir.Inst:
		return cerr.Handle{Space: "inst", Index: uint32(v)}
	case ir.Value:
		return cerr.Handle{Space: "value", Index: uint32(v)}
	case ir.Entity:
		return cerr.Handle{Space: "entity", Index: uint32(v)}
	default:
		return cerr.Handle{}
	}
}

// checkEntrySignature verifies that the entry block's parameter types
// equal the function signature's parameter types.
func checkEntrySignature(f *ir.Function) error {
	entry := f.FirstBlock()
	params := f.BlockParamTypes(entry)
	sigParams := f.Signature.Params
	if len(params) != len(sigParams) {
		return fail(entry, "entry block has %d parameters, signature declares %d", len(params), len(sigParams))
	}
	for i, t := range params {
		if !t.Equal(sigParams[i].Type) {
			return fail(entry, "entry block parameter %d has type %s, signature declares %s", i, t, sigParams[i].Type)
		}
	}
	return nil
}

// checkTerminators verifies that every block ends with a terminator.
func checkTerminators(f *ir.Function) error {
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		last := f.LastInst(b)
		if last == ir.InstNil {
			return fail(b, "block is empty (missing terminator)")
		}
		if !f.Inst(last).Op.IsTerminator() {
			return fail(last, "block does not end with a terminator")
		}
		// No instruction after the first terminator a block could have
		// (the layout only ever appends one at the tail in well-formed
		// construction, but a pass could have inserted after it by
		// mistake): verified implicitly since last is the tail by
		// definition of LastInst; nothing further to check here.
	}
	return nil
}

// checkBranchArgs verifies that branch arguments match target block
// parameter arity and types.
func checkBranchArgs(f *ir.Function) error {
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		last := f.LastInst(b)
		if last == ir.InstNil {
			continue
		}
		inst := f.Inst(last)
		for _, bc := range inst.Targets {
			params := f.BlockParams(bc.Target)
			if len(params) != len(bc.Args) {
				return fail(last, "branch to %s supplies %d arguments, target expects %d", bc.Target, len(bc.Args), len(params))
			}
			for i, p := range params {
				wantType := f.ValueType(p)
				gotType := f.ValueType(bc.Args[i])
				if !wantType.Equal(gotType) {
					return fail(last, "branch argument %d has type %s, target parameter %d expects %s", i, gotType, i, wantType)
				}
			}
		}
	}
	return nil
}

// checkJumpTables verifies that every br_table's case targets exist, carry
// no block parameters (case dispatch passes no arguments, unlike a plain
// branch), and that the table has at least one entry.
func checkJumpTables(f *ir.Function) error {
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		last := f.LastInst(b)
		if last == ir.InstNil {
			continue
		}
		inst := f.Inst(last)
		if inst.Op != ir.OpBrTable {
			continue
		}
		table, ok := f.Entity(inst.Entity).(ir.JumpTableData)
		if !ok {
			return fail(last, "br_table entity is not a jump_table")
		}
		if len(table.Targets) == 0 {
			return fail(last, "br_table declares no case targets")
		}
		for _, target := range table.Targets {
			if len(f.BlockParams(target)) != 0 {
				return fail(last, "br_table case target %s expects arguments, but case dispatch passes none", target)
			}
		}
	}
	return nil
}

// checkDominance verifies that every use is dominated by its definition,
// on the CFG of EBBs, with intra-block position accounting for uses and
// definitions within the same block.
func checkDominance(f *ir.Function) error {
	entry := f.FirstBlock()
	_, dom := cfg.Of(f, entry)

	pos := instPosition(f)

	checkUse := func(user ir.Inst, use ir.Value) error {
		defBlock, defInst, defIsParam := defSite(f, use)
		userBlock := f.Inst(user).Block()
		if defIsParam {
			if !dom.Dominates(defBlock, userBlock) {
				return fail(user, "use of %s is not dominated by its block-parameter definition in %s", use, defBlock)
			}
			return nil
		}
		if defBlock == userBlock {
			if pos[defInst] >= pos[user] {
				return fail(user, "use of %s does not follow its definition within %s", use, defBlock)
			}
			return nil
		}
		if !dom.Dominates(defBlock, userBlock) {
			return fail(user, "use of %s in %s is not dominated by its definition in %s", use, userBlock, defBlock)
		}
		return nil
	}

	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			for _, a := range inst.Args {
				if err := checkUse(i, a); err != nil {
					return err
				}
			}
			for _, bc := range inst.Targets {
				for _, a := range bc.Args {
					if err := checkUse(i, a); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// defSite resolves where v is defined: either a block (as a parameter) or an
// instruction (as a result).
func defSite(f *ir.Function, v ir.Value) (block ir.Block, inst ir.Inst, isParam bool) {
	if b, _, ok := f.ValueBlockParam(v); ok {
		return b, ir.InstNil, true
	}
	d := f.ValueDef(v)
	return f.Inst(d).Block(), d, false
}

// instPosition assigns each instruction a dense, function-wide position
// increasing in layout order, so two instructions in the same block can be
// compared: positions are only meaningful relative to one function's
// layout, never across functions.
func instPosition(f *ir.Function) map[ir.Inst]int {
	pos := make(map[ir.Inst]int)
	n := 0
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		n++ // one slot for the block header itself
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			pos[i] = n
			n++
		}
	}
	return pos
}

// checkFlags verifies that no more than one flag-typed value is live at a
// time within a block. Whether an instruction between a flags value's def
// and its use clobbers the flags is not checked. Since
// iflags/fflags only appear post-legalization, this is a no-op unless such
// values exist.
func checkFlags(f *ir.Function) error {
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		liveFlag := ir.ValueNil
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			for _, a := range inst.Args {
				if f.ValueType(a).IsFlags() && a == liveFlag {
					liveFlag = ir.ValueNil // consumed
				}
			}
			if r := inst.Result(); r != ir.ValueNil && f.ValueType(r).IsFlags() {
				if liveFlag != ir.ValueNil {
					return fail(i, "a second flags value becomes live while %s is still live", liveFlag)
				}
				liveFlag = r
			}
		}
	}
	return nil
}

// checkEntitiesAcyclic verifies that entity references in the preamble do
// not form cycles: global-value derivation chains must be acyclic.
func checkEntitiesAcyclic(f *ir.Function) error {
	// Global values are the only preamble entity kind with a derivation
	// chain; walk each one's Base chain looking for a repeat.
	var firstErr error
	f.EachEntity(func(e ir.Entity, data ir.EntityData) bool {
		if _, ok := data.(ir.GlobalValueData); !ok {
			return true
		}
		if err := CheckGlobalValue(f, e); err != nil {
			firstErr = err
			return false
		}
		return true
	})
	return firstErr
}

// CheckGlobalValue verifies that starting from gv, the global-value
// derivation chain is acyclic and well-formed. Front ends should call this
// once per global value at construction time; Run defers to this because
// the preamble's entity table is not itself enumerable in handle order.
func CheckGlobalValue(f *ir.Function, gv ir.Entity) error {
	seen := make(map[ir.Entity]bool)
	for {
		if seen[gv] {
			return fail(gv, "global value derivation chain is cyclic")
		}
		seen[gv] = true
		data, ok := f.Entity(gv).(ir.GlobalValueData)
		if !ok {
			return fail(gv, "entity is not a global value")
		}
		switch data.Kind {
		case ir.GVIAddImm, ir.GVLoad:
			gv = data.Base
		default:
			return nil
		}
	}
}
