package ir

// Preamble entities share one handle space but come in several kinds;
// EntityData is a closed variant over those kinds (an interface implemented
// by one struct per kind) rather than one struct with a discriminant field
// for every kind's fields.
type EntityData interface {
	entityKind() string
}

// StackSlotKind distinguishes explicit (front-end-declared) slots from
// spill slots the register allocator creates.
type StackSlotKind uint8

const (
	// StackSlotExplicit is a front-end-declared slot (preamble sigil ss0...).
	StackSlotExplicit StackSlotKind = iota
	// StackSlotSpill is created by the register allocator's spiller.
	StackSlotSpill
)

// StackSlotData describes one stack slot.
type StackSlotData struct {
	Kind  StackSlotKind
	Size  uint32
	Align uint8 // log2 alignment
	// Offset is assigned by the frame layout step during emission; zero
	// until then.
	Offset int32
}

func (StackSlotData) entityKind() string { return "stack_slot" }

// JumpTableData holds the block targets of a lowered jump-table dispatch.
type JumpTableData struct {
	Targets []Block
}

func (JumpTableData) entityKind() string { return "jump_table" }

// ExtFuncData describes a reference to an externally-defined function
// (preamble sigil fn0...), resolved to a Relocation at emission time.
type ExtFuncData struct {
	Name     string
	Sig      Entity // Entity referring to a SignatureData
	CallConv CallConv
}

func (ExtFuncData) entityKind() string { return "ext_func" }

// SignatureData wraps a Signature so it can be referenced by Entity handle
// (preamble sigil sig0...), e.g. from a call_indirect instruction.
type SignatureData struct {
	Signature Signature
}

func (SignatureData) entityKind() string { return "signature" }

// GlobalValueKind enumerates the four kinds of global value.
type GlobalValueKind uint8

const (
	// GVVMCtx is the embedder context pointer, a root with no dependency.
	GVVMCtx GlobalValueKind = iota
	// GVIAddImm is base + a constant offset, referencing another GlobalValue.
	GVIAddImm
	// GVLoad dereferences another GlobalValue plus an offset.
	GVLoad
	// GVSymbol is a linker-resolved symbol address.
	GVSymbol
)

// GlobalValueData describes one global value. Chains formed via Base must be
// acyclic; the verifier checks this.
type GlobalValueData struct {
	Kind   GlobalValueKind
	Base   Entity // for IAddImm/Load: the GlobalValue this one derives from
	Offset int64
	Type   Type   // for Load: the loaded type
	Symbol string // for Symbol
}

func (GlobalValueData) entityKind() string { return "global_value" }

// HeapStyle distinguishes static heaps (fixed base, fixed bound) from
// dynamic heaps (base/bound held in global values).
type HeapStyle uint8

const (
	// HeapStatic is a heap with a compile-time-fixed base and bound.
	HeapStatic HeapStyle = iota
	// HeapDynamic is a heap whose base and current bound live in GlobalValues.
	HeapDynamic
)

// HeapData describes one linear-memory heap declaration.
type HeapData struct {
	Kind HeapStyle

	// Static fields (Kind == HeapStatic).
	Base          uint64 // fixed base address
	Min           uint64 // minimum mapped/addressable size
	Bound         uint64 // total addressable bound, including guard region
	OffsetGuardTo uint64 // size of the offset-guard region past Bound (0 = none)

	// Dynamic fields (Kind == HeapDynamic).
	BaseGV  Entity // GlobalValue holding the base address
	BoundGV Entity // GlobalValue holding the current bound
}

func (HeapData) entityKind() string { return "heap" }

// TableData describes a table of opaque indices (e.g. for call_indirect),
// analogous to HeapData but without byte-addressed loads.
type TableData struct {
	BaseGV   Entity
	BoundGV  Entity
	ElemSize uint32
}

func (TableData) entityKind() string { return "table" }

// ConstantData holds immediate data too wide for an instruction's immediate
// field: large f64/vector immediates destined for the emitted constant pool.
type ConstantData struct {
	Bytes []byte
}

func (ConstantData) entityKind() string { return "constant" }
