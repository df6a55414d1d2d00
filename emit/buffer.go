// Package emit walks a legalized, colored Function in layout order and
// produces its machine code: the byte buffer itself, relocations an
// embedder/linker must still patch, trap sites, and stack maps at call-site
// safepoints. Branch targets and jump-table blobs within the same function
// are resolved here directly (their offsets are known from a first
// measuring pass, so no backpatch queue reaches the caller); anything
// naming an external entity (a call target, a global symbol) is left as an
// unresolved Relocation for the caller.
package emit

import (
	"encoding/binary"
	"fmt"

	"crank/ir"
)

// Relocation is a fixup an embedder applies after loading Code at its final
// address: Offset is the byte position of the field to patch, Entity names
// what it should resolve to (an ExtFuncData or GlobalValueData preamble
// entity), and Kind picks the field's encoding ("rel32" or "abs64").
type Relocation struct {
	Kind   string
	Offset int
	Addend int64
	Entity ir.Entity
}

// TrapSite records the byte offset of one trap instruction (ud2, or a
// conditional skip-over-ud2 sequence) and the trap code a runtime should
// report when the faulting pc lands there.
type TrapSite struct {
	Offset int
	Code   int64
}

// Safepoint is one call site's stack map entry: the pc immediately after
// the call, a conservative span during which it applies, and the
// stack-pointer-relative offsets of every slot that may hold a live managed
// pointer at that point.
type Safepoint struct {
	PCOffset int
	Length   int
	Entries  []int32
}

// JumpTableLayout reports where one br_table's sidecar blob landed inside
// Code, and the raw entries written there (each a byte offset, relative to
// the blob's own start, of that case's target block).
type JumpTableLayout struct {
	Entity  ir.Entity
	Offset  int
	Entries []int32
}

// localReloc is a same-function relocation whose target offset is already
// known by the time patching runs: either a branch's target block or a
// br_table's sidecar blob. width is 1 for a rel8 field, 4 for rel32.
type localReloc struct {
	pos      int
	addend   int64
	width    int
	isEntity bool
	block    ir.Block  // valid when !isEntity: resolves via blockOffset
	entity   ir.Entity // valid when isEntity: resolves via tableOffset
}

// Buffer accumulates one function's encoded bytes plus its side tables. It
// implements isa.Emitter; Machine.Emit calls are the only way bytes get
// appended.
type Buffer struct {
	buf         []byte
	blockOffset map[ir.Block]int
	tableOffset map[ir.Entity]int
	pending     []localReloc
	relocs      []Relocation
	traps       []TrapSite
	safepoints  []Safepoint
}

// NewBuffer returns an empty Buffer ready for one function's emission.
func NewBuffer() *Buffer {
	return &Buffer{
		blockOffset: make(map[ir.Block]int),
		tableOffset: make(map[ir.Entity]int),
	}
}

func (b *Buffer) Bytes(bs ...byte) { b.buf = append(b.buf, bs...) }

func (b *Buffer) U32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }

func (b *Buffer) U64(v uint64) { b.buf = binary.LittleEndian.AppendUint64(b.buf, v) }

func (b *Buffer) I32(v int32) { b.U32(uint32(v)) }

func (b *Buffer) Len() int { return len(b.buf) }

// Reloc records a fixup at the buffer's current position (always called
// just before the placeholder field it refers to is written). A block
// target, or an entity known to be a jump table's sidecar blob, is resolved
// once measure's layout is final (patchLocalRelocs, run after emission);
// any other entity is an external reference returned to the caller
// unresolved.
func (b *Buffer) Reloc(kind string, addend int64, target any) {
	width := 4
	if kind == "rel8" {
		width = 1
	}
	switch t := target.(type) {
	case ir.Block:
		b.pending = append(b.pending, localReloc{pos: b.Len(), addend: addend, width: width, block: t})
	case ir.Entity:
		if _, ok := b.tableOffset[t]; ok {
			b.pending = append(b.pending, localReloc{pos: b.Len(), addend: addend, width: width, isEntity: true, entity: t})
			return
		}
		b.relocs = append(b.relocs, Relocation{Kind: kind, Offset: b.Len(), Addend: addend, Entity: t})
	default:
		panic(fmt.Sprintf("emit: unsupported relocation target %T", target))
	}
}

func (b *Buffer) TrapSite(code int64) {
	b.traps = append(b.traps, TrapSite{Offset: b.Len(), Code: code})
}

func (b *Buffer) addSafepoint(sp Safepoint) { b.safepoints = append(b.safepoints, sp) }

func (b *Buffer) patchLocalRelocs() {
	for _, r := range b.pending {
		var target int
		var ok bool
		if r.isEntity {
			target, ok = b.tableOffset[r.entity]
		} else {
			target, ok = b.blockOffset[r.block]
		}
		if !ok {
			panic("emit: relocation target has no recorded offset")
		}
		disp := int64(target) - int64(r.pos) + r.addend
		switch r.width {
		case 1:
			if disp < -128 || disp > 127 {
				panic("emit: rel8 displacement out of range after relaxation")
			}
			b.buf[r.pos] = byte(int8(disp))
		default:
			binary.LittleEndian.PutUint32(b.buf[r.pos:r.pos+4], uint32(int32(disp)))
		}
	}
}

func (b *Buffer) Code() []byte              { return b.buf }
func (b *Buffer) Relocations() []Relocation { return b.relocs }
func (b *Buffer) TrapSites() []TrapSite     { return b.traps }
func (b *Buffer) Safepoints() []Safepoint   { return b.safepoints }
