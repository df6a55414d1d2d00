package ir

// Positions numbers every block header and instruction of f with a dense,
// increasing ProgramPoint in layout order: one slot per block (where block
// parameters become live) and one per instruction (where its results become
// live). Liveness and the verifier's dominance check both need this same
// numbering, so it lives here rather than being reimplemented per pass.
type Positions struct {
	block map[Block]ProgramPoint
	inst  map[Inst]ProgramPoint
	limit ProgramPoint
}

// ComputePositions builds a Positions table for f's current layout. The
// result is only valid until the next layout mutation.
func ComputePositions(f *Function) *Positions {
	p := &Positions{
		block: make(map[Block]ProgramPoint),
		inst:  make(map[Inst]ProgramPoint),
	}
	var n ProgramPoint
	for b := f.FirstBlock(); b != BlockNil; b = f.NextBlock(b) {
		p.block[b] = n
		n++
		for i := f.FirstInst(b); i != InstNil; i = f.NextInst(i) {
			p.inst[i] = n
			n++
		}
	}
	p.limit = n
	return p
}

// Block returns the program point at which block's parameters become live.
func (p *Positions) Block(b Block) ProgramPoint { return p.block[b] }

// Inst returns the program point at which inst's results become live.
func (p *Positions) Inst(i Inst) ProgramPoint { return p.inst[i] }

// Limit returns one past the last program point assigned: a sentinel "live
// past the end of the function" endpoint for open-ended segments.
func (p *Positions) Limit() ProgramPoint { return p.limit }
