package amd64

import (
	"crank/ir"
	"crank/isa"
)

// Emit implements isa.Machine: it appends inst's encoded bytes to buf, once
// every operand named in f.Locations has a concrete physical register or
// stack slot. The encodings below follow x86-64's own REX/ModRM/SIB
// structure rather than a table of canned byte sequences, so a new operand
// combination (a spilled operand, a high register) falls out of the same
// helpers instead of needing its own case.
func (m *Machine) Emit(buf isa.Emitter, f *ir.Function, i ir.Inst, recipe isa.Recipe) {
	inst := f.Inst(i)
	switch recipe.ID {
	case RecipeMovImm:
		dst := regOf(f, inst.Result())
		emitRex(buf, true, false, false, dst.high)
		buf.Bytes(0xb8 | dst.low)
		buf.U64(uint64(inst.Imm))

	case RecipeRR:
		dst := regOf(f, inst.Result())
		src := regOf(f, inst.Args[1])
		emitRex(buf, true, dst.high, false, src.high)
		if inst.Op == ir.OpImul {
			buf.Bytes(0x0f, 0xaf)
		} else {
			buf.Bytes(rrOpcode(inst.Op))
		}
		buf.Bytes(modrm(3, dst.num, src.num))

	case RecipeShift:
		// ConstraintsFor fixes the count operand (Args[1]) to rcx; only the
		// shifted value (dst/Args[0]) needs a REX.B bit here.
		dst := regOf(f, inst.Result())
		emitRex(buf, true, false, false, dst.high)
		buf.Bytes(0xd3)
		buf.Bytes(modrm(3, shiftDigit(inst.Op), dst.num))

	case RecipeRI:
		dst := regOf(f, inst.Result())
		emitRex(buf, true, false, false, dst.high)
		buf.Bytes(0x81)
		buf.Bytes(modrm(3, 0 /*add*/, dst.num))
		buf.I32(int32(inst.Imm))

	case RecipeIDiv:
		divisor := regOf(f, inst.Args[1])
		emitRex(buf, true, false, false, divisor.high)
		if inst.Op == ir.OpIDivRaw {
			buf.Bytes(0x99) // cqo: sign-extend rax into rdx:rax
			buf.Bytes(0xf7)
			buf.Bytes(modrm(3, 7, divisor.num)) // /7 = idiv
		} else {
			buf.Bytes(0x31, 0xd2) // xor edx, edx: zero-extend for unsigned divide
			buf.Bytes(0xf7)
			buf.Bytes(modrm(3, 6, divisor.num)) // /6 = div
		}

	case RecipeCmp:
		a := regOf(f, inst.Args[0])
		b := regOf(f, inst.Args[1])
		emitRex(buf, true, a.high, false, b.high)
		buf.Bytes(0x39)
		buf.Bytes(modrm(3, b.num, a.num))

	case RecipeSetcc:
		cmp := f.Inst(f.ValueDef(inst.Args[0]))
		dst := regOf(f, inst.Result())
		emitRex(buf, false, false, false, dst.high)
		buf.Bytes(0x0f, 0x90|conditionCode(cmp.Cond, inst.Cond))
		buf.Bytes(modrm(3, 0, dst.num))
		emitRex(buf, true, dst.high, false, dst.high)
		buf.Bytes(0x0f, 0xb6) // movzx eax, al
		buf.Bytes(modrm(3, dst.num, dst.num))

	case RecipeJmpShort:
		buf.Bytes(0xeb)
		buf.Reloc("rel8", -1, inst.Targets[0].Target)
		buf.Bytes(0)

	case RecipeJmpLong:
		buf.Bytes(0xe9)
		buf.Reloc("rel32", -4, inst.Targets[0].Target)
		buf.U32(0)

	case RecipeJccFlagsShort:
		cmp := f.Inst(f.ValueDef(inst.Args[0]))
		buf.Bytes(0x70 | conditionCode(cmp.Cond, inst.Cond))
		buf.Reloc("rel8", -1, inst.Targets[0].Target)
		buf.Bytes(0)

	case RecipeJccFlagsLong:
		cmp := f.Inst(f.ValueDef(inst.Args[0]))
		buf.Bytes(0x0f, 0x80|conditionCode(cmp.Cond, inst.Cond))
		buf.Reloc("rel32", -4, inst.Targets[0].Target)
		buf.U32(0)

	case RecipeJccRegShort:
		cond := regOf(f, inst.Args[0])
		emitRex(buf, true, cond.high, false, cond.high)
		buf.Bytes(0x85)
		buf.Bytes(modrm(3, cond.num, cond.num))
		buf.Bytes(0x75) // jnz rel8
		buf.Reloc("rel8", -1, inst.Targets[0].Target)
		buf.Bytes(0)

	case RecipeJccRegLong:
		cond := regOf(f, inst.Args[0])
		emitRex(buf, true, cond.high, false, cond.high)
		buf.Bytes(0x85)
		buf.Bytes(modrm(3, cond.num, cond.num))
		buf.Bytes(0x0f, 0x85) // jnz rel32
		buf.Reloc("rel32", -4, inst.Targets[0].Target)
		buf.U32(0)

	case RecipeBrTable:
		// ecx holds index (ConstraintsFor fixes it there); rax/rdx are
		// clobbered scratch, not IR-visible values.
		idx := regOf(f, inst.Args[0])
		table, _ := f.Entity(inst.Entity).(ir.JumpTableData)
		buf.Bytes(0x81) // cmp ecx, imm32
		buf.Bytes(modrm(3, 7, idx.num))
		buf.I32(int32(len(table.Targets)))
		buf.Bytes(0x0f, 0x83) // jae default (near: out of range)
		buf.Reloc("rel32", -4, inst.Targets[0].Target)
		buf.U32(0)
		buf.Bytes(0x48, 0x8d, 0x05) // lea rax, [rip+table]
		buf.Reloc("rel32", -4, inst.Entity)
		buf.U32(0)
		buf.Bytes(0x48, 0x63, 0x14, 0x88) // movsxd rdx, dword [rax+rcx*4]
		buf.Bytes(0x48, 0x01, 0xd0)       // add rax, rdx
		buf.Bytes(0xff, 0xe0)             // jmp rax

	case RecipeRet:
		buf.Bytes(0xc3)

	case RecipeUd2:
		buf.TrapSite(inst.Imm)
		buf.Bytes(0x0f, 0x0b)

	case RecipeTrapcc:
		cmp := f.Inst(f.ValueDef(inst.Args[0]))
		cc := conditionCode(cmp.Cond, inst.Cond)
		buf.Bytes(0x0f, 0x80|invertNibble(cc)) // skip the trap if the condition doesn't hold
		buf.Bytes(0x02, 0x00, 0x00, 0x00)       // rel32 past the 2-byte ud2
		buf.TrapSite(inst.Imm)
		buf.Bytes(0x0f, 0x0b)

	case RecipeLoad:
		addr := regOf(f, inst.Args[0])
		dst := regOf(f, inst.Result())
		emitRex(buf, true, dst.high, false, addr.high)
		buf.Bytes(0x8b)
		emitMem(buf, dst.num, addr.num, int32(inst.Imm))

	case RecipeStore:
		addr := regOf(f, inst.Args[1])
		val := regOf(f, inst.Args[0])
		emitRex(buf, true, val.high, false, addr.high)
		buf.Bytes(0x89)
		emitMem(buf, val.num, addr.num, int32(inst.Imm))

	case RecipeLea:
		switch inst.Op {
		case ir.OpStackAddr:
			slot, _ := f.Entity(inst.Entity).(ir.StackSlotData)
			dst := regOf(f, inst.Result())
			emitRex(buf, true, dst.high, false, false)
			buf.Bytes(0x8d)
			emitMem(buf, dst.num, byte(RBP), int32(slot.Offset)+int32(inst.Imm))
		default: // global_value (IAddImm/VMCtx/Symbol kinds that reach here directly)
			dst := regOf(f, inst.Result())
			emitRex(buf, true, dst.high, false, dst.high)
			buf.Bytes(0xb8 | dst.low) // materialized as an absolute mov; relocated if a Symbol
			buf.Reloc("abs64", 0, inst.Entity)
			buf.U64(0)
		}

	case RecipeCall:
		buf.Bytes(0xe8)
		buf.Reloc("rel32", -4, inst.Entity)
		buf.U32(0)

	case RecipeCallIndirect:
		target := regOf(f, inst.Args[len(inst.Args)-1])
		emitRex(buf, false, false, false, target.high)
		buf.Bytes(0xff)
		buf.Bytes(modrm(3, 2, target.num))

	case RecipeMovRR:
		dst := regOf(f, inst.Result())
		src := regOf(f, inst.Args[0])
		emitRex(buf, true, src.high, false, dst.high)
		buf.Bytes(0x89)
		buf.Bytes(modrm(3, src.num, dst.num))

	case RecipeSpill:
		slot, _ := f.Entity(inst.Entity).(ir.StackSlotData)
		src := regOf(f, inst.Args[0])
		emitRex(buf, true, src.high, false, false)
		buf.Bytes(0x89)
		emitMem(buf, src.num, byte(RBP), int32(slot.Offset))

	case RecipeFill:
		slot, _ := f.Entity(inst.Entity).(ir.StackSlotData)
		dst := regOf(f, inst.Result())
		emitRex(buf, true, dst.high, false, false)
		buf.Bytes(0x8b)
		emitMem(buf, dst.num, byte(RBP), int32(slot.Offset))
	}
}

type reg struct {
	num  byte
	low  byte
	high bool
}

func regOf(f *ir.Function, v ir.Value) reg {
	loc := f.Locations[v]
	n := byte(loc.Reg.Num) & 0xf
	return reg{num: n & 7, low: n & 7, high: n >= 8}
}

func emitRex(buf isa.Emitter, w, r, x, b bool) {
	rex := byte(0x40)
	if w {
		rex |= 1 << 3
	}
	if r {
		rex |= 1 << 2
	}
	if x {
		rex |= 1 << 1
	}
	if b {
		rex |= 1
	}
	buf.Bytes(rex)
}

func modrm(mod, regField, rm byte) byte {
	return mod<<6 | (regField&7)<<3 | (rm & 7)
}

// emitMem writes a ModRM+(SIB)+disp32 memory operand for [baseReg+disp],
// reusing regField as the ModRM reg field (the other operand, a register).
func emitMem(buf isa.Emitter, regField, baseReg byte, disp int32) {
	buf.Bytes(modrm(2, regField, baseReg))
	if baseReg&7 == 4 { // rsp/r12 as a base always needs a SIB byte
		buf.Bytes(0x24)
	}
	buf.I32(disp)
}

func shiftDigit(op ir.Opcode) byte {
	switch op {
	case ir.OpIshl:
		return 4
	case ir.OpUshr:
		return 5
	default: // OpSshr
		return 7
	}
}

// rrOpcode returns the "op r64, r/m64" form, whose ModRM reg field (dst in
// RecipeRR) is the destination.
func rrOpcode(op ir.Opcode) byte {
	switch op {
	case ir.OpIadd:
		return 0x03
	case ir.OpIsub:
		return 0x2b
	case ir.OpBand:
		return 0x23
	case ir.OpBor:
		return 0x0b
	case ir.OpBxor:
		return 0x33
	case ir.OpIshl, ir.OpUshr, ir.OpSshr:
		return 0xd3
	default:
		return 0x03
	}
}

// ccNibble maps an IntCC to the x86 condition-code nibble used by both Jcc
// (0x0f 0x80|cc) and Setcc (0x0f 0x90|cc).
func ccNibble(cc ir.IntCC) byte {
	switch cc {
	case ir.CondEq:
		return 0x4
	case ir.CondNe:
		return 0x5
	case ir.CondSlt:
		return 0xc
	case ir.CondSle:
		return 0xe
	case ir.CondSgt:
		return 0xf
	case ir.CondSge:
		return 0xd
	case ir.CondUlt:
		return 0x2
	case ir.CondUle:
		return 0x6
	case ir.CondUgt:
		return 0x7
	case ir.CondUge:
		return 0x3
	default:
		return 0x4
	}
}

func invertCC(cc ir.IntCC) ir.IntCC {
	switch cc {
	case ir.CondEq:
		return ir.CondNe
	case ir.CondNe:
		return ir.CondEq
	case ir.CondSlt:
		return ir.CondSge
	case ir.CondSge:
		return ir.CondSlt
	case ir.CondSle:
		return ir.CondSgt
	case ir.CondSgt:
		return ir.CondSle
	case ir.CondUlt:
		return ir.CondUge
	case ir.CondUge:
		return ir.CondUlt
	case ir.CondUle:
		return ir.CondUgt
	case ir.CondUgt:
		return ir.CondUle
	default:
		return cc
	}
}

func invertNibble(cc byte) byte { return cc ^ 1 }

// conditionCode resolves a flags-typed consumer's effective x86 condition:
// cmpCond is the comparison FlagsCmp actually performed; sense is the
// consumer's own Cond, which is only ever CondEq ("act when cmpCond held")
// or CondNe ("act when it didn't").
func conditionCode(cmpCond, sense ir.IntCC) byte {
	if sense == ir.CondNe {
		return ccNibble(invertCC(cmpCond))
	}
	return ccNibble(cmpCond)
}
