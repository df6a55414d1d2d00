package emit

import (
	"crank/internal/cerr"
	"crank/ir"
	"crank/isa"
)

// Artifact is one function's complete compiled output.
type Artifact struct {
	Code        []byte
	Size        int
	Relocations []Relocation
	TrapSites   []TrapSite
	Safepoints  []Safepoint
	JumpTables  []JumpTableLayout
	UnwindInfo  []byte
	FrameSize   int32
}

// jumpTableAlign is the byte alignment every br_table sidecar blob starts
// on, chosen to match the 4-byte entries it holds with room to spare.
const jumpTableAlign = 8

// Function encodes f in layout order against mach and returns the finished
// Artifact. f must already be fully colored (every Value has a Location,
// every instruction an Encoding) by the earlier compile passes.
func Function(f *ir.Function, mach isa.Machine) *Artifact {
	fr := layoutFrame(f)

	buf := NewBuffer()
	recipes, tables := measure(f, mach, buf)
	walk(f, mach, buf, fr, recipes)
	jts := emitJumpTables(f, buf, tables)
	buf.patchLocalRelocs()

	return &Artifact{
		Code:        buf.Code(),
		Size:        buf.Len(),
		Relocations: buf.Relocations(),
		TrapSites:   buf.TrapSites(),
		Safepoints:  buf.Safepoints(),
		JumpTables:  jts,
		UnwindInfo:  unwindBlob(fr),
		FrameSize:   fr.size,
	}
}

// The prologue/epilogue are synthesized here rather than carried as IR
// instructions (the signature's ABI and the frame layout above are only
// final once register allocation has run), so their fixed byte lengths are
// hardcoded alongside the raw bytes below. This is this package's one
// target-specific shortcut: a second target would need its own frame-shape
// constants, same as isa/amd64 itself already is this module's only target.
const (
	prologueSize = 11 // push rbp; mov rbp,rsp; sub rsp,imm32
	epilogueSize = 4  // mov rsp,rbp; pop rbp  (ret itself comes from RecipeRet)
)

// measure lays out the function, starting every relaxable branch at its
// shortest recipe and widening in a fixpoint until every forward reference
// fits: each pass recomputes block and jump-table-blob offsets from the
// current recipe sizes, then checks every relaxable instruction's
// displacement against its recipe's range; any overflow widens that one
// instruction's recipe (mach.Relax) and triggers another pass. This always
// terminates, since recipes only ever widen and there are finitely many
// relaxable instructions.
//
// It returns the final recipe chosen for every instruction (walk must
// reuse this rather than re-querying SelectRecipe, since SelectRecipe
// always answers with the shortest form) and the br_table entities
// encountered, in layout order, for the jump-table blob pass that follows
// walk.
func measure(f *ir.Function, mach isa.Machine, buf *Buffer) (map[ir.Inst]isa.Recipe, []ir.Entity) {
	recipes := map[ir.Inst]isa.Recipe{}
	var tables []ir.Entity
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			recipes[i] = recipeFor(f, mach, i)
			if f.Inst(i).Op == ir.OpBrTable {
				tables = append(tables, f.Inst(i).Entity)
			}
		}
	}

	instOffset := map[ir.Inst]int{}

	layout := func() int {
		offset := prologueSize
		for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
			buf.blockOffset[b] = offset
			for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
				inst := f.Inst(i)
				if inst.Op == ir.OpReturn {
					offset += epilogueSize
				}
				instOffset[i] = offset
				offset += recipes[i].Size
			}
		}
		for _, t := range tables {
			if rem := offset % jumpTableAlign; rem != 0 {
				offset += jumpTableAlign - rem
			}
			buf.tableOffset[t] = offset
			table, _ := f.Entity(t).(ir.JumpTableData)
			offset += len(table.Targets) * 4
		}
		return offset
	}

	for {
		layout()
		widened := false
		for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
			for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
				r := recipes[i]
				if !r.Relaxable {
					continue
				}
				inst := f.Inst(i)
				target := buf.blockOffset[inst.Targets[0].Target]
				nextInstAddr := instOffset[i] + r.Size
				disp := target - nextInstAddr
				if disp < -128 || disp > 127 {
					recipes[i] = mach.Relax(r)
					widened = true
				}
			}
		}
		if !widened {
			break
		}
	}
	return recipes, tables
}

// walk performs the real emission pass, appending each instruction's bytes
// via mach.Emit (using the recipe measure already settled on) and recording
// a Safepoint immediately after every call.
func walk(f *ir.Function, mach isa.Machine, buf *Buffer, fr *frame, recipes map[ir.Inst]isa.Recipe) {
	emitPrologue(buf, fr)
	for b := f.FirstBlock(); b != ir.BlockNil; b = f.NextBlock(b) {
		for i := f.FirstInst(b); i != ir.InstNil; i = f.NextInst(i) {
			inst := f.Inst(i)
			if inst.Op == ir.OpReturn {
				emitEpilogue(buf)
			}
			recipe := recipes[i]
			mach.Emit(buf, f, i, recipe)
			if inst.Op == ir.OpCall || inst.Op == ir.OpCallIndirect {
				buf.addSafepoint(callSafepoint(buf.Len(), fr))
			}
		}
	}
}

// emitJumpTables appends every br_table's sidecar blob after the function
// body, in the same alignment and order measure laid out, and reports each
// one's final position and contents. An entry is the target case block's
// byte offset relative to the blob's own start, so the amd64 lowering can
// recover an absolute address at runtime with just `table_base + entry`.
func emitJumpTables(f *ir.Function, buf *Buffer, tables []ir.Entity) []JumpTableLayout {
	out := make([]JumpTableLayout, 0, len(tables))
	for _, t := range tables {
		for buf.Len()%jumpTableAlign != 0 {
			buf.Bytes(0)
		}
		base := buf.Len()
		table, _ := f.Entity(t).(ir.JumpTableData)
		entries := make([]int32, len(table.Targets))
		for idx, blk := range table.Targets {
			entries[idx] = int32(buf.blockOffset[blk] - base)
			buf.I32(entries[idx])
		}
		out = append(out, JumpTableLayout{Entity: t, Offset: base, Entries: entries})
	}
	return out
}

func emitPrologue(buf *Buffer, fr *frame) {
	buf.Bytes(0x55)             // push rbp
	buf.Bytes(0x48, 0x89, 0xe5) // mov rbp, rsp
	buf.Bytes(0x48, 0x81, 0xec) // sub rsp, imm32
	buf.I32(fr.size)
}

func emitEpilogue(buf *Buffer) {
	buf.Bytes(0x48, 0x89, 0xec) // mov rsp, rbp
	buf.Bytes(0x5d)             // pop rbp
}

// recipeFor selects an already-legalized instruction's starting recipe.
// legalize.Run guarantees every instruction it leaves behind has a direct
// encoding, so a miss here means a pass upstream broke that invariant.
func recipeFor(f *ir.Function, mach isa.Machine, i ir.Inst) isa.Recipe {
	recipe, ok := mach.SelectRecipe(f, i)
	if !ok {
		cerr.Internal("emit: instruction %s has no direct encoding at emission time", f.Inst(i).Op)
	}
	return recipe
}

// callSafepoint reports every explicit stack slot as a candidate live
// managed-pointer location at pc (conservative: the front end doesn't tag
// which explicit slots actually hold pointers, so every one is reported and
// the embedder decides what to trust). The span is the single pc itself;
// this module doesn't track how long a slot's contents stay meaningful
// across instructions, so it makes no claim beyond the exact call-return
// address.
func callSafepoint(pc int, fr *frame) Safepoint {
	entries := make([]int32, 0, len(fr.explicit))
	for _, off := range fr.explicit {
		entries = append(entries, off)
	}
	return Safepoint{PCOffset: pc, Length: 1, Entries: entries}
}

// unwindBlob is the opaque prologue/epilogue unwind metadata this target
// exposes: push rbp; mov rbp, rsp; sub rsp, frameSize, recorded so a host
// unwinder can reconstruct the frame without re-disassembling the prologue.
// The byte layout is target-defined, per this module's own scope (an opaque
// blob plus fixups); amd64's shape is the frame size as a little-endian
// u32, matching the single "sub rsp, imm32" the prologue needs.
func unwindBlob(fr *frame) []byte {
	b := NewBuffer()
	b.U32(uint32(fr.size))
	return b.Code()
}
