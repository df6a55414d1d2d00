// Package amd64 implements isa.Machine for the x86-64 System V target: the
// concrete register numbering, encoding recipes, operand constraints, and
// calling convention this module needs to legalize, allocate registers for,
// and emit the opcodes ir/opcode.go defines.
package amd64

import (
	"fmt"

	"crank/machreg"
)

// GPR real-register numbers, in x86-64's own ModRM/REX.B numbering so a
// Real can be used directly as the 4-bit register field emit.go writes.
const (
	RAX machreg.Real = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

var gprNames = map[machreg.Real]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx",
	RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

var xmmNames = func() map[machreg.Real]string {
	m := make(map[machreg.Real]string, 16)
	for i := 0; i < 16; i++ {
		m[machreg.Real(i)] = fmt.Sprintf("xmm%d", i)
	}
	return m
}()

func gpr(r machreg.Real) machreg.Reg {
	return machreg.Reg{Class: machreg.ClassInt, Num: r, Units: []machreg.Unit{machreg.Unit(r)}}
}

func xmm(r machreg.Real) machreg.Reg {
	return machreg.Reg{Class: machreg.ClassFloat, Num: r, Units: []machreg.Unit{machreg.Unit(100 + r)}}
}

// ScratchGPR is reserved for parallel-move cycle breaking at block-parameter
// edges; never handed to the colorer. r11 is caller-saved, never an
// argument or result register in the System V ABI, and is the scratch
// register JIT backends conventionally reserve for exactly this purpose.
var ScratchGPR = gpr(R11)

// allocatableGPRs excludes rsp (stack pointer) and rbp (this backend always
// keeps a frame pointer) and r11 (scratch).
var allocatableGPRs = []machreg.Reg{
	gpr(RAX), gpr(RCX), gpr(RDX), gpr(RBX),
	gpr(RSI), gpr(RDI), gpr(R8), gpr(R9),
	gpr(R10), gpr(R12), gpr(R13), gpr(R14), gpr(R15),
}

var allocatableXMMs = func() []machreg.Reg {
	out := make([]machreg.Reg, 0, 16)
	for i := 0; i < 16; i++ {
		out = append(out, xmm(machreg.Real(i)))
	}
	return out
}()

// calleeSavedGPRs lists the System V callee-saved integer registers among
// the allocatable set.
var calleeSavedGPRs = []machreg.Real{RBX, R12, R13, R14, R15}
