package ir

// CallConv names a calling convention. ABI-unstable
// conventions (fast, cold, the WebAssembly embedder conventions) need not be
// preserved across versions of this module.
type CallConv uint8

const (
	// CallConvSystemV is the x86-64 System V ABI.
	CallConvSystemV CallConv = iota
	// CallConvFast is an unstable convention tuned for fast calls between
	// functions compiled together.
	CallConvFast
	// CallConvCold is an unstable convention for rarely-taken call targets
	// (e.g. trap handlers), optimized for code size over call speed.
	CallConvCold
	// CallConvFastcall is the Windows x64 fastcall-derived ABI.
	CallConvFastcall
	// CallConvWasmtimeSystemV is an embedder-specific WebAssembly convention
	// layered over System V (adds vmctx handling).
	CallConvWasmtimeSystemV
)

func (c CallConv) String() string {
	switch c {
	case CallConvSystemV:
		return "system_v"
	case CallConvFast:
		return "fast"
	case CallConvCold:
		return "cold"
	case CallConvFastcall:
		return "fastcall"
	case CallConvWasmtimeSystemV:
		return "wasmtime_system_v"
	default:
		return "callconv?"
	}
}

// ParamFlag marks a special role a signature entry plays, beyond its type.
type ParamFlag uint16

const (
	// FlagSRet marks a hidden pointer for an oversized return value.
	FlagSRet ParamFlag = 1 << iota
	// FlagLink marks the return address.
	FlagLink
	// FlagFP marks the initial frame pointer.
	FlagFP
	// FlagCSR marks a callee-saved register argument/result.
	FlagCSR
	// FlagVMCtx marks the embedder context pointer.
	FlagVMCtx
	// FlagSigID marks a signature id used for indirect-call type checks.
	FlagSigID
	// FlagStackLimit marks the stack-limit argument.
	FlagStackLimit
)

// Has reports whether flags contains f.
func (flags ParamFlag) Has(f ParamFlag) bool { return flags&f != 0 }

// AbiParam is one entry of a Signature's parameter or result list.
type AbiParam struct {
	Type  Type
	Flags ParamFlag
}

// Signature describes a function's calling convention and its parameter and
// result lists.
type Signature struct {
	CallConv CallConv
	Params   []AbiParam
	Results  []AbiParam
}

// Clone returns a deep copy of sig so callers may hold and mutate
// independent signature instances.
func (sig Signature) Clone() Signature {
	out := Signature{CallConv: sig.CallConv}
	out.Params = append([]AbiParam(nil), sig.Params...)
	out.Results = append([]AbiParam(nil), sig.Results...)
	return out
}
