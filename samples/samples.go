// Package samples builds a small set of hand-constructed ir.Functions for
// the CLI and service entry points to compile: there is no textual-format
// front end in this module's scope, so anything it compiles has to be built
// directly through ir.Builder instead of parsed from source.
package samples

import "crank/ir"

// Sample names one builtin function plus a one-line description for
// listing/help output.
type Sample struct {
	Name        string
	Description string
	Build       func() *ir.Function
}

// All lists every builtin sample, in a fixed order.
var All = []Sample{
	{"const7", "returns the constant 7", ConstSeven},
	{"incr", "returns its argument plus one, wrapping on overflow", IncrementOne},
	{"sdiv", "signed division of two arguments, traps on div-by-zero or overflow", SignedDivide},
	{"heapload", "bounds-checked load from a static heap", HeapLoad},
	{"callsite", "stores a pointer to a stack slot, calls out, and reloads it", CallWithStackMap},
	{"brtable", "dispatches on an index through a jump table, falling back to a default", BrTableDispatch},
	{"relax", "a conditional branch whose target is far enough to force relaxation", BranchRelaxation},
}

// Find returns the named sample, or nil if name isn't one of All.
func Find(name string) *Sample {
	for i := range All {
		if All[i].Name == name {
			return &All[i]
		}
	}
	return nil
}

// ConstSeven is `function %k() -> i32 { v0 = iconst.i32 7; return v0 }`.
func ConstSeven() *ir.Function {
	f := ir.NewFunction("k", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	b.CreateEntryBlock()
	v0 := b.Iconst(ir.I32, 7)
	b.Return(v0)
	return f
}

// IncrementOne is `function %inc(i32) -> i32 { v1 = iadd_imm v0, 1; return v1 }`.
func IncrementOne() *ir.Function {
	f := ir.NewFunction("inc", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	v0 := f.BlockParams(entry)[0]
	v1 := b.IaddImm(v0, 1)
	b.Return(v1)
	return f
}

// SignedDivide is `function %sd(i32,i32) -> i32 { v2 = sdiv v0, v1; return v2 }`.
func SignedDivide() *ir.Function {
	f := ir.NewFunction("sd", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}, {Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	args := f.BlockParams(entry)
	v2 := b.Sdiv(args[0], args[1])
	b.Return(v2)
	return f
}

// HeapLoad declares a static heap (per Scenario D's preamble shape) and
// loads an f32 from index+offset through a bounds-checked heap_addr.
func HeapLoad() *ir.Function {
	f := ir.NewFunction("heapload", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.F32}},
	})
	heap := f.CreateEntity(ir.HeapData{
		Kind:          ir.HeapStatic,
		Base:          0,
		Min:           0x1000,
		Bound:         0x1_0000_0000,
		OffsetGuardTo: 0x8000_0000,
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]
	addr := b.HeapAddr(ir.I64, heap, index, 0, 4)
	v := b.Load(ir.F32, addr, 0)
	b.Return(v)
	return f
}

// BrTableDispatch is `function %disp(i32) -> i32` dispatching index through
// a four-case jump table, each case returning a distinct constant, and
// falling back to -1 when index is out of range.
func BrTableDispatch() *ir.Function {
	f := ir.NewFunction("disp", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	index := f.BlockParams(entry)[0]

	deflt := b.CreateBlock()
	case0 := b.CreateBlock()
	case1 := b.CreateBlock()
	case2 := b.CreateBlock()
	case3 := b.CreateBlock()

	table := f.CreateEntity(ir.JumpTableData{Targets: []ir.Block{case0, case1, case2, case3}})

	b.SwitchToBlock(entry)
	b.BrTable(index, table, deflt, nil)

	b.SwitchToBlock(deflt)
	b.Return(b.Iconst(ir.I32, -1))

	b.SwitchToBlock(case0)
	b.Return(b.Iconst(ir.I32, 10))

	b.SwitchToBlock(case1)
	b.Return(b.Iconst(ir.I32, 20))

	b.SwitchToBlock(case2)
	b.Return(b.Iconst(ir.I32, 30))

	b.SwitchToBlock(case3)
	b.Return(b.Iconst(ir.I32, 40))

	return f
}

// BranchRelaxation is `function %relax(i32) -> i32`: a conditional branch
// whose taken target sits far enough past the fallthrough path (a long
// straight-line chain of iadd_imm) that its displacement can't fit a rel8
// form, forcing emission's widening pass to kick in.
func BranchRelaxation() *ir.Function {
	f := ir.NewFunction("relax", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I32}},
		Results:  []ir.AbiParam{{Type: ir.I32}},
	})
	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	v0 := f.BlockParams(entry)[0]

	chain := b.CreateBlock()
	far := b.CreateBlock()

	zero := b.Iconst(ir.I32, 0)
	cond := b.Icmp(ir.CondEq, v0, zero)
	b.Brif(cond, far, nil, chain, nil)

	b.SwitchToBlock(chain)
	acc := v0
	// 7 bytes per iadd_imm, well past 2^15 in total: long enough that the
	// far block's taken-branch displacement cannot fit a rel8 field.
	for i := 0; i < 5000; i++ {
		acc = b.IaddImm(acc, 1)
	}
	b.Return(acc)

	b.SwitchToBlock(far)
	b.Return(v0)

	return f
}

// CallWithStackMap is Scenario E: a preamble-declared explicit stack slot
// holds a pointer across a call, so exactly one stack map entry should be
// recorded at the call site.
func CallWithStackMap() *ir.Function {
	f := ir.NewFunction("callsite", ir.Signature{
		CallConv: ir.CallConvSystemV,
		Params:   []ir.AbiParam{{Type: ir.I64}},
		Results:  []ir.AbiParam{{Type: ir.I64}},
	})

	calleeSig := f.CreateEntity(ir.SignatureData{Signature: ir.Signature{
		CallConv: ir.CallConvSystemV,
		Results:  []ir.AbiParam{{Type: ir.I64}},
	}})
	callee := f.CreateEntity(ir.ExtFuncData{
		Name: "touch", Sig: calleeSig, CallConv: ir.CallConvSystemV,
	})
	slot := f.CreateEntity(ir.StackSlotData{
		Kind: ir.StackSlotExplicit, Size: 8, Align: 3,
	})

	b := ir.NewBuilder(f)
	entry := b.CreateEntryBlock()
	ptr := f.BlockParams(entry)[0]
	addr := b.StackAddr(ir.I64, slot, 0)
	b.Store(ptr, addr, 0)
	b.Call(callee)
	reloaded := b.Load(ir.I64, addr, 0)
	b.Return(reloaded)
	return f
}
