package isa

import "crank/machreg"

// RegInfo names a target's register banks and how each CallConv assigns
// them to parameters and results.
type RegInfo struct {
	// Names maps a (class, real number) pair to its assembly name, for
	// diagnostics such as crank-cli's register listing.
	Names map[machreg.Class]map[machreg.Real]string

	// Allocatable lists, per class, the registers the colorer is free to
	// assign (callee-saved and caller-saved alike; the colorer does not
	// distinguish between the two).
	Allocatable map[machreg.Class][]machreg.Reg

	// CalleeSaved lists, per class, the registers a callee must preserve.
	CalleeSaved map[machreg.Class][]machreg.Real

	// ScratchReg is the register reserved for parallel-move cycle breaking
	// and never handed to the colorer.
	ScratchReg machreg.Reg

	// ABI assigns parameter/result locations for each supported CallConv.
	ABI map[ir_CallConv]ABI
}

// ir_CallConv avoids an isa -> ir import just for one enum: Machine
// implementations key their ABI table with the small int values of
// ir.CallConv, converted at the call site.
type ir_CallConv = uint8

// ABI describes how one calling convention assigns argument and result
// locations. This module's scope covers only register-passed scalars, in
// the fixed order its ISA gives them — no stack-passed overflow arguments.
type ABI struct {
	IntParamRegs   []machreg.Real
	FloatParamRegs []machreg.Real
	IntResultRegs  []machreg.Real
	FloatResultRegs []machreg.Real
}
