package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Function in a debug textual style (`result =
// opcode.type args`, block headers with typed parameters). This is a
// one-way dump for diagnostics and tests; nothing in this module reads the
// format back in.
type Printer struct {
	out strings.Builder
}

// Print renders f to its debug textual form.
func Print(f *Function) string {
	p := &Printer{}
	p.printFunction(f)
	return p.out.String()
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.out, format, args...)
}

func (p *Printer) printFunction(f *Function) {
	p.printf("function %%%s(", f.Name)
	for i, param := range f.Signature.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s", param.Type)
	}
	p.printf(")")
	if len(f.Signature.Results) > 0 {
		p.printf(" -> ")
		for i, r := range f.Signature.Results {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s", r.Type)
		}
	}
	p.printf(" %s {\n", f.Signature.CallConv)
	for b := f.FirstBlock(); b != BlockNil; b = f.NextBlock(b) {
		p.printBlock(f, b)
	}
	p.printf("}\n")
}

func (p *Printer) printBlock(f *Function, b Block) {
	p.printf("%s(", b)
	for i, param := range f.BlockParams(b) {
		if i > 0 {
			p.printf(", ")
		}
		p.printf("%s: %s", param, f.ValueType(param))
	}
	p.printf("):\n")
	for i := f.FirstInst(b); i != InstNil; i = f.NextInst(i) {
		p.printInst(f, i)
	}
}

func (p *Printer) printInst(f *Function, i Inst) {
	inst := f.Inst(i)
	p.printf("    ")
	if len(inst.results) > 0 {
		for n, r := range inst.results {
			if n > 0 {
				p.printf(", ")
			}
			p.printf("%s", r)
		}
		p.printf(" = ")
	}
	p.printf("%s", inst.Op)
	if inst.Typ.IsValid() {
		p.printf(".%s", inst.Typ)
	}
	args := make([]string, 0, len(inst.Args))
	for _, a := range inst.Args {
		args = append(args, a.String())
	}
	switch inst.Op {
	case OpIconst, OpBconst, OpIaddImm:
		args = append(args, fmt.Sprintf("%d", inst.Imm))
	case OpIcmp:
		args = append([]string{inst.Cond.String()}, args...)
	}
	if len(args) > 0 {
		p.printf(" %s", strings.Join(args, ", "))
	}
	for _, bc := range inst.Targets {
		p.printf(" %s(", bc.Target)
		for n, a := range bc.Args {
			if n > 0 {
				p.printf(", ")
			}
			p.printf("%s", a)
		}
		p.printf(")")
	}
	p.printf("\n")
}
