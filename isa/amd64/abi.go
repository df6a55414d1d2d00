package amd64

import (
	"crank/ir"
	"crank/isa"
	"crank/machreg"
)

// systemVABI assigns the first N integer/float parameters and results to
// registers, in System V's fixed order. Stack-passed overflow arguments are
// out of scope: callers and callees in this module's test programs never
// exceed the register-passed counts.
var systemVABI = isa.ABI{
	IntParamRegs:    []machreg.Real{RDI, RSI, RDX, RCX, R8, R9},
	FloatParamRegs:  regRange(8),
	IntResultRegs:   []machreg.Real{RAX, RDX},
	FloatResultRegs: regRange(2),
}

func regRange(n int) []machreg.Real {
	out := make([]machreg.Real, n)
	for i := range out {
		out[i] = machreg.Real(i)
	}
	return out
}

func (m *Machine) regInfo() *isa.RegInfo {
	return &isa.RegInfo{
		Names: map[machreg.Class]map[machreg.Real]string{
			machreg.ClassInt:   gprNames,
			machreg.ClassFloat: xmmNames,
		},
		Allocatable: map[machreg.Class][]machreg.Reg{
			machreg.ClassInt:   allocatableGPRs,
			machreg.ClassFloat: allocatableXMMs,
		},
		CalleeSaved: map[machreg.Class][]machreg.Real{
			machreg.ClassInt: calleeSavedGPRs,
		},
		ScratchReg: ScratchGPR,
		ABI: map[uint8]isa.ABI{
			uint8(ir.CallConvSystemV): systemVABI,
		},
	}
}

// AssignParams returns the physical register each of sig's parameters is
// passed in, in declaration order, consulting the int/float counters
// independently as System V does.
func AssignParams(sig ir.Signature) []machreg.Reg {
	return assign(sig.Params, systemVABI.IntParamRegs, systemVABI.FloatParamRegs)
}

// AssignResults returns the physical register each of sig's results is
// returned in.
func AssignResults(sig ir.Signature) []machreg.Reg {
	return assign(sig.Results, systemVABI.IntResultRegs, systemVABI.FloatResultRegs)
}

func assign(params []ir.AbiParam, intRegs, floatRegs []machreg.Real) []machreg.Reg {
	out := make([]machreg.Reg, len(params))
	nextInt, nextFloat := 0, 0
	for i, p := range params {
		if p.Type.IsFloat() {
			out[i] = xmm(floatRegs[nextFloat])
			nextFloat++
		} else {
			out[i] = gpr(intRegs[nextInt])
			nextInt++
		}
	}
	return out
}
