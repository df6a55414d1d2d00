package ir

import "crank/machreg"

// ValueLoc records where the register allocator placed a value: either a
// physical register or a stack slot entity, never both.
type ValueLoc struct {
	Kind ValueLocKind
	Reg  machreg.Reg
	Slot Entity // valid when Kind == LocStack
}

func (l ValueLoc) String() string {
	switch l.Kind {
	case LocReg:
		return "reg"
	case LocStack:
		return l.Slot.String()
	default:
		return "unassigned"
	}
}
