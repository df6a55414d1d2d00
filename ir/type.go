package ir

import "fmt"

// Type is an IR value type. The zero Type is invalid; use the exported
// constructors/constants below.
type Type struct {
	kind  typeKind
	lane  typeKind // for vectors, the scalar lane type
	lanes uint16   // for vectors, N (power of two in [2,256]); 1 otherwise
}

type typeKind uint8

const (
	kindInvalid typeKind = iota
	kindB1
	kindB8
	kindB16
	kindB32
	kindB64
	kindI8
	kindI16
	kindI32
	kindI64
	kindF32
	kindF64
	kindIFlags
	kindFFlags
)

var scalarNames = map[typeKind]string{
	kindB1: "b1", kindB8: "b8", kindB16: "b16", kindB32: "b32", kindB64: "b64",
	kindI8: "i8", kindI16: "i16", kindI32: "i32", kindI64: "i64",
	kindF32: "f32", kindF64: "f64",
	kindIFlags: "iflags", kindFFlags: "fflags",
}

// Scalar type constants.
var (
	B1      = Type{kind: kindB1, lanes: 1}
	B8      = Type{kind: kindB8, lanes: 1}
	B16     = Type{kind: kindB16, lanes: 1}
	B32     = Type{kind: kindB32, lanes: 1}
	B64     = Type{kind: kindB64, lanes: 1}
	I8      = Type{kind: kindI8, lanes: 1}
	I16     = Type{kind: kindI16, lanes: 1}
	I32     = Type{kind: kindI32, lanes: 1}
	I64     = Type{kind: kindI64, lanes: 1}
	F32     = Type{kind: kindF32, lanes: 1}
	F64     = Type{kind: kindF64, lanes: 1}
	IFlags  = Type{kind: kindIFlags, lanes: 1}
	FFlags  = Type{kind: kindFFlags, lanes: 1}
	Invalid = Type{}
)

// Vector constructs a SIMD type of `lanes` copies of a scalar lane type.
// lanes must be a power of two in [2,256]; panics (internal invariant
// violation, not a recoverable builder error) otherwise, since a front end
// should never pass a type it didn't already validate.
func Vector(lane Type, lanes uint16) Type {
	if lane.kind == kindInvalid || lane.IsVector() || lane.IsFlags() {
		panic(fmt.Sprintf("ir: invalid SIMD lane type %s", lane))
	}
	if lanes < 2 || lanes > 256 || lanes&(lanes-1) != 0 {
		panic(fmt.Sprintf("ir: invalid SIMD lane count %d", lanes))
	}
	return Type{kind: lane.kind, lane: lane.kind, lanes: lanes}
}

// IsValid reports whether t is a real type (not the zero value).
func (t Type) IsValid() bool { return t.kind != kindInvalid }

// IsVector reports whether t is a TxN SIMD type.
func (t Type) IsVector() bool { return t.lanes > 1 }

// IsInt reports whether t is an integer scalar or vector lane type.
func (t Type) IsInt() bool {
	return t.kind == kindI8 || t.kind == kindI16 || t.kind == kindI32 || t.kind == kindI64
}

// IsBool reports whether t is a boolean scalar or vector lane type.
func (t Type) IsBool() bool {
	switch t.kind {
	case kindB1, kindB8, kindB16, kindB32, kindB64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is a floating-point scalar or vector lane type.
func (t Type) IsFloat() bool { return t.kind == kindF32 || t.kind == kindF64 }

// IsFlags reports whether t is the iflags or fflags CPU pseudotype.
func (t Type) IsFlags() bool { return t.kind == kindIFlags || t.kind == kindFFlags }

// Lanes returns the SIMD lane count, or 1 for scalars.
func (t Type) Lanes() uint16 {
	if t.lanes == 0 {
		return 1
	}
	return t.lanes
}

// LaneType returns the scalar lane type: t itself for scalars, or the
// element type for a TxN vector.
func (t Type) LaneType() Type {
	if !t.IsVector() {
		return t
	}
	return Type{kind: t.lane, lanes: 1}
}

// Bits returns the bit width of one lane (0 for flags pseudotypes, which
// have no in-register representation before legalization materializes them).
func (t Type) Bits() uint16 {
	switch t.LaneType().kind {
	case kindB1:
		return 1
	case kindB8, kindI8:
		return 8
	case kindB16, kindI16:
		return 16
	case kindB32, kindI32, kindF32:
		return 32
	case kindB64, kindI64, kindF64:
		return 64
	default:
		return 0
	}
}

// SizeBytes returns the total storage size of t, including all lanes,
// rounded up to a whole byte per lane.
func (t Type) SizeBytes() uint32 {
	bits := uint32(t.Bits())
	if t.LaneType().kind == kindB1 {
		bits = 8 // b1 materializes to a full byte (bint) before it occupies storage.
	}
	return (bits / 8) * uint32(t.Lanes())
}

func (t Type) String() string {
	if !t.IsValid() {
		return "invalid"
	}
	if t.IsVector() {
		return fmt.Sprintf("%sx%d", scalarNames[t.lane], t.lanes)
	}
	return scalarNames[t.kind]
}

// Equal reports whether t and o denote the same type.
func (t Type) Equal(o Type) bool { return t == o }
