// Package ir implements the machine-independent SSA intermediate
// representation: entity tables, extended basic blocks, SSA values,
// signatures, and preamble entities, all scoped to a single Function with
// no cross-function mutable state.
package ir

import (
	"fmt"

	"crank/ir/smallmap"
)

// Function owns every entity of one compilation unit: its signature, a
// preamble, a value table, an instruction table, a block table, and a
// layout ordering blocks and instructions. Two Functions never share
// mutable state.
type Function struct {
	Name      string
	Signature Signature

	preamble   *smallmap.Map[Entity, EntityData]
	nextEntity uint32
	freeEntity []Entity

	values    []valueDef
	freeValue []Value

	insts    []*Instruction
	freeInst []Inst

	blocks    []blockData
	freeBlock []Block

	aliases map[Value]Value

	// Layout: the ordered sequence of blocks. BlockNil at either end.
	firstBlock, lastBlock Block

	// Side tables populated by later passes. Nil until the corresponding
	// pass runs: Encodings by legalize, VRegOf by regalloc/coalesce,
	// Locations by regalloc/color. No pass in this module fills LiveRanges;
	// liveness.Compute returns its ranges in a liveness.Info instead.
	Encodings  map[Inst]Encoding
	Locations  map[Value]ValueLoc
	VRegOf     map[Value]VReg
	LiveRanges map[Value]*LiveRange

	// cfgGen is bumped on every layout mutation; the cfg package uses it as
	// a cache-validity key so a dominator tree built for this function can
	// be reused across passes until the layout actually changes.
	cfgGen uint64
}

// Generation returns a counter bumped on every layout mutation. Equal values
// observed before and after a span of work mean the layout did not change.
func (f *Function) Generation() uint64 { return f.cfgGen }

// Encoding annotates an instruction with the recipe (and recipe-specific
// bits) the legalizer matched it to.
type Encoding struct {
	Recipe uint16
	Bits   uint64
}

// ValueLocKind distinguishes an unassigned location from a register or a
// stack slot.
type ValueLocKind uint8

const (
	LocUnassigned ValueLocKind = iota
	LocReg
	LocStack
)

// NewFunction creates an empty Function with the given name and signature.
func NewFunction(name string, sig Signature) *Function {
	return &Function{
		Name:       name,
		Signature:  sig,
		preamble:   smallmap.New[Entity, EntityData](8),
		aliases:    make(map[Value]Value),
		firstBlock: BlockNil,
		lastBlock:  BlockNil,
	}
}

// --- Entity (preamble) allocation ---

// CreateEntity allocates a new preamble entity and stores data for it,
// returning its handle.
func (f *Function) CreateEntity(data EntityData) Entity {
	var e Entity
	if n := len(f.freeEntity); n > 0 {
		e = f.freeEntity[n-1]
		f.freeEntity = f.freeEntity[:n-1]
	} else {
		if f.nextEntity >= MaxEntitiesPerFunction {
			panic(fmt.Sprintf("ir: function %q exceeded max preamble entities", f.Name))
		}
		e = Entity(f.nextEntity)
		f.nextEntity++
	}
	f.preamble.Put(e, data)
	return e
}

// Entity returns the preamble data stored for e.
func (f *Function) Entity(e Entity) EntityData {
	d, ok := f.preamble.Get(e)
	if !ok {
		panic(fmt.Sprintf("ir: dangling entity handle %s", e))
	}
	return d
}

// SetEntity overwrites the preamble data stored for e (used by the frame
// layout step to record an assigned stack-slot offset, for instance).
func (f *Function) SetEntity(e Entity, data EntityData) {
	f.preamble.Put(e, data)
}

// EachEntity calls f(e, data) for every live preamble entity, in unspecified
// order. Iteration stops early if f returns false.
func (fn *Function) EachEntity(f func(e Entity, data EntityData) bool) {
	fn.preamble.Each(f)
}

// RemoveEntity frees e's slot for reuse.
func (f *Function) RemoveEntity(e Entity) {
	f.preamble.Delete(e)
	f.freeEntity = append(f.freeEntity, e)
}

// --- Value allocation ---

func (f *Function) allocValue(d valueDef) Value {
	if n := len(f.freeValue); n > 0 {
		v := f.freeValue[n-1]
		f.freeValue = f.freeValue[:n-1]
		f.values[v] = d
		return v
	}
	if len(f.values) >= MaxValuesPerFunction {
		panic(fmt.Sprintf("ir: function %q exceeded max values", f.Name))
	}
	f.values = append(f.values, d)
	return Value(len(f.values) - 1)
}

// --- Instruction allocation ---

func (f *Function) allocInst(inst *Instruction) Inst {
	if n := len(f.freeInst); n > 0 {
		i := f.freeInst[n-1]
		f.freeInst = f.freeInst[:n-1]
		f.insts[i] = inst
		return i
	}
	if len(f.insts) >= MaxInstsPerFunction {
		panic(fmt.Sprintf("ir: function %q exceeded max instructions", f.Name))
	}
	f.insts = append(f.insts, inst)
	return Inst(len(f.insts) - 1)
}

// Inst returns the Instruction data for i.
func (f *Function) Inst(i Inst) *Instruction {
	return f.insts[i]
}

// --- Block allocation ---

// NewBlock allocates a fresh, empty, not-yet-laid-out block with parameters
// of the given types. Parameter values are
// allocated contiguously.
func (f *Function) NewBlock(paramTypes ...Type) Block {
	if len(paramTypes) > MaxArity {
		panic(fmt.Sprintf("ir: block parameter arity %d exceeds limit", len(paramTypes)))
	}
	var b Block
	if n := len(f.freeBlock); n > 0 {
		b = f.freeBlock[n-1]
		f.freeBlock = f.freeBlock[:n-1]
	} else {
		if len(f.blocks) >= MaxBlocksPerFunction {
			panic(fmt.Sprintf("ir: function %q exceeded max blocks", f.Name))
		}
		f.blocks = append(f.blocks, blockData{})
		b = Block(len(f.blocks) - 1)
	}
	params := make([]Value, len(paramTypes))
	for i, t := range paramTypes {
		params[i] = f.allocValue(valueDef{typ: t, block: b, paramIdx: i, inst: InstNil})
	}
	f.blocks[b] = blockData{
		params:    params,
		prevBlock: BlockNil,
		nextBlock: BlockNil,
		firstInst: InstNil,
		lastInst:  InstNil,
	}
	return b
}

// NumBlocks returns the number of live (non-freed) blocks.
func (f *Function) NumBlocks() int { return len(f.blocks) - len(f.freeBlock) }
