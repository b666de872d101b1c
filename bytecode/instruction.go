package bytecode

import "fmt"

// Location tags which memory space an Address points into.
type Location uint8

const (
	// LocData addresses the script's constant data section.
	LocData Location = iota
	// LocStack addresses the interpreter's evaluation stack, as a byte
	// offset from the stack base.
	LocStack
)

func (l Location) String() string {
	switch l {
	case LocData:
		return "data"
	case LocStack:
		return "stack"
	}
	return fmt.Sprintf("location(%d)", uint8(l))
}

// Address pairs an offset with the memory space it belongs to. The pool
// hands out data addresses, the stream hands out stack addresses, and the
// emit helpers reject addresses from the wrong space, so the two can never
// be silently confused during lowering.
type Address struct {
	Loc Location
	Off uint32
}

// DataAddr returns the address of data-section offset off.
func DataAddr(off uint32) Address { return Address{LocData, off} }

// StackAddr returns the address of evaluation-stack offset off.
func StackAddr(off uint32) Address { return Address{LocStack, off} }

func (a Address) String() string {
	return fmt.Sprintf("%s:0x%04X", a.Loc, a.Off)
}

// AddressSize is the width in bytes of an instruction's address operand,
// and of a string reference pushed onto the evaluation stack.
const AddressSize = 4

// EncodedInstructionSize is the width of one serialized instruction
// record: opcode byte, u32 address, size byte.
const EncodedInstructionSize = 6

// Instruction is one executable operation. Addr is a data-section or
// evaluation-stack offset depending on the opcode (see OpcodeInfo), and
// Size is the operand width in bytes. Instructions execute strictly in
// sequence order.
type Instruction struct {
	Op   Opcode
	Addr uint32
	Size uint8
}
