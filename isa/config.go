// Package isa defines the contracts a concrete target (isa/amd64) implements:
// immutable compile-time configuration, the register/ABI vocabulary, and the
// Machine interface legalize/regalloc/emit consult to stay target-agnostic.
package isa

import "crank/ir"

// Config is an immutable, read-only settings bundle produced by Builder and
// shared across however many functions a host compiles concurrently.
type Config struct {
	name    string
	ints    map[string]int64
	bools   map[string]bool
	machine Machine
}

// Name returns the target triple-like name this Config was built for
// (e.g. "amd64-system_v").
func (c *Config) Name() string { return c.name }

// Int looks up a named integer setting (e.g. "offset_guard_bytes").
func (c *Config) Int(name string) (int64, bool) { v, ok := c.ints[name]; return v, ok }

// Bool looks up a named boolean setting (e.g. "use_guard_pages").
func (c *Config) Bool(name string) bool { return c.bools[name] }

// Machine returns the target-specific encoder/expander this Config wraps.
func (c *Config) Machine() Machine { return c.machine }

// Builder collects named settings before Finish produces an immutable
// Config. Settings groups are plain maps, not a struct-per-target, so a new
// target can introduce a setting without changing this package.
type Builder struct {
	name    string
	ints    map[string]int64
	bools   map[string]bool
	machine Machine
}

// NewBuilder starts building a Config named name, targeting the given
// Machine implementation.
func NewBuilder(name string, machine Machine) *Builder {
	return &Builder{
		name:    name,
		ints:    make(map[string]int64),
		bools:   make(map[string]bool),
		machine: machine,
	}
}

// SetInt records an integer setting.
func (b *Builder) SetInt(name string, v int64) *Builder { b.ints[name] = v; return b }

// SetBool records a boolean setting.
func (b *Builder) SetBool(name string, v bool) *Builder { b.bools[name] = v; return b }

// Finish produces the immutable Config. The Builder must not be reused
// afterward; Finish does not defensively copy its maps.
func (b *Builder) Finish() *Config {
	return &Config{name: b.name, ints: b.ints, bools: b.bools, machine: b.machine}
}

// Machine is the target-specific contract the rest of the pipeline consults
// without ever switching on an ISA name itself.
type Machine interface {
	// RegInfo returns the target's register banks and calling-convention
	// assignment tables.
	RegInfo() *RegInfo

	// SelectRecipe reports whether the target can encode inst directly, and
	// if so which Recipe it would use. legalize calls this first for every
	// instruction in the fixpoint loop.
	SelectRecipe(f *ir.Function, i ir.Inst) (Recipe, bool)

	// Expand rewrites inst into an equivalent sequence when SelectRecipe
	// found no direct encoding, returning the newly inserted instructions
	// for re-legalization. ok is false when the opcode is simply
	// unsupported by this target at all.
	Expand(f *ir.Function, i ir.Inst) (inserted []ir.Inst, ok bool)

	// ConstraintsFor returns the operand constraints (fixed registers, tied
	// operands, early clobbers) a recipe imposes, consulted by the
	// coloring pass.
	ConstraintsFor(recipe Recipe) OperandConstraints

	// Relax returns recipe's wider fallback encoding. emit's branch
	// relaxation pass calls this only when recipe.Relaxable is true and the
	// short encoding's displacement doesn't fit; the result must never
	// itself be Relaxable, so the widening sweep always terminates.
	Relax(recipe Recipe) Recipe

	// Emit appends inst's final encoded bytes (and any relocations) to buf,
	// once every operand has a concrete ValueLoc.
	Emit(buf Emitter, f *ir.Function, i ir.Inst, recipe Recipe)
}

// Emitter is the subset of emit.Buffer's API the isa package depends on,
// kept here to avoid isa importing emit (emit is the higher-level
// consumer; isa only needs to write bytes and record relocations/traps).
type Emitter interface {
	Bytes(b ...byte)
	U32(v uint32)
	U64(v uint64)
	I32(v int32)
	Reloc(kind string, addend int64, target any)
	TrapSite(code int64)
	Len() int
}
