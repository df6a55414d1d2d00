package amd64

import "crank/isa"

// Machine implements isa.Machine for x86-64 System V. Every method is a pure
// function of the Function and instruction handed to it; the only state a
// Machine carries is the heap bounds-checking strategy, fixed at
// construction, so one value is still shared read-only across however many
// functions a host compiles concurrently.
type Machine struct {
	useGuardPages    bool
	offsetGuardBytes int64
}

// New returns the x86-64 System V Machine that relies on guard pages: no
// explicit heap_addr bounds compare, just an offset-guard region past the
// mapped heap that traps on out-of-bounds access.
func New() *Machine {
	return &Machine{useGuardPages: true, offsetGuardBytes: 1 << 31}
}

// NewExplicitBounds returns a Machine that expands heap_addr into an
// explicit bounds compare, for hosts that can't reserve a guard region.
func NewExplicitBounds() *Machine {
	return &Machine{useGuardPages: false}
}

// RegInfo implements isa.Machine.
func (m *Machine) RegInfo() *isa.RegInfo { return m.regInfo() }

// Relax implements isa.Machine: every short, Relaxable recipe this target
// produces has its long form at ID+1, sized to hold a full rel32.
func (m *Machine) Relax(r isa.Recipe) isa.Recipe {
	longID := r.ID + 1
	return recipe(longID, relaxedSize[longID], false)
}

// NewConfig builds the isa.Config this module's CLI and tests use: a
// guarded-heap x86-64 System V target with a 2 GiB offset-guard region, the
// configuration wasmtime-style embedders default to.
func NewConfig() *isa.Config {
	m := New()
	return isa.NewBuilder("amd64-system_v", m).
		SetBool("use_guard_pages", true).
		SetInt("offset_guard_bytes", m.offsetGuardBytes).
		SetInt("pointer_bytes", 8).
		Finish()
}

// NewConfigNoGuardPages builds a variant with guard pages disabled, so
// heap_addr must emit an explicit bounds compare instead of relying on a
// trapping access past the mapped region.
func NewConfigNoGuardPages() *isa.Config {
	return isa.NewBuilder("amd64-system_v-explicit-bounds", NewExplicitBounds()).
		SetBool("use_guard_pages", false).
		SetInt("offset_guard_bytes", 0).
		SetInt("pointer_bytes", 8).
		Finish()
}
