package bytecode

import "fmt"

// Opcode identifies a bytecode operation. Opcodes are grouped into ranges
// by category so the interpreter's dispatch and the disassembler can
// reason about families without enumerating members.
type Opcode uint8

// Control flow opcodes (0x00-0x0F)
const (
	OpNop  Opcode = 0x00 // no effect
	OpHalt Opcode = 0x01 // stop execution
)

// Stack transfer opcodes (0x10-0x1F)
const (
	OpPushData  Opcode = 0x10 // push Size bytes read from data[Addr]
	OpPushAddr  Opcode = 0x11 // push the 4-byte value Addr itself (a string reference)
	OpPushStack Opcode = 0x12 // copy Size bytes from stack[Addr] to the top
	OpDrop      Opcode = 0x13 // pop Size bytes
)

// Integer arithmetic opcodes (0x20-0x2F). Each pops two Size-byte operands
// (right on top) and pushes one Size-byte result. Signed variants wrap on
// overflow, two's complement.
const (
	OpAddI Opcode = 0x20
	OpSubI Opcode = 0x21
	OpMulI Opcode = 0x22
	OpDivI Opcode = 0x23 // signed quotient, truncated toward zero
	OpModI Opcode = 0x24 // signed remainder, sign of the dividend
	OpDivU Opcode = 0x25
	OpModU Opcode = 0x26
)

// Float arithmetic opcodes (0x30-0x3F). Same two-pop-one-push shape;
// f16 operands are computed at float32 precision and narrowed back.
const (
	OpAddF Opcode = 0x30
	OpSubF Opcode = 0x31
	OpMulF Opcode = 0x32
	OpDivF Opcode = 0x33
)

// Output opcodes (0x40-0x4F). Each pops one Size-byte operand, prints its
// decoded value and a trailing newline.
const (
	OpPrintI Opcode = 0x40 // signed integer
	OpPrintU Opcode = 0x41 // unsigned integer
	OpPrintF Opcode = 0x42 // float
	OpPrintB Opcode = 0x43 // bool
	OpPrintC Opcode = 0x44 // UTF-16 code unit
	OpPrintS Opcode = 0x45 // pops a 4-byte data-section address, prints the string there
)

// AddrKind says how an instruction's Addr field is interpreted.
type AddrKind uint8

const (
	AddrNone  AddrKind = iota // Addr is unused and serialized as zero
	AddrData                  // Addr is a data-section offset
	AddrStack                 // Addr is an evaluation-stack offset
)

// OpcodeInfo provides metadata about an opcode for the instruction
// builder, the serializer's validation, and the disassembler.
type OpcodeInfo struct {
	Name  string
	Addr  AddrKind
	Sizes uint16 // bitmask of legal Size values; bit n set means size n is legal
}

func sizeMask(sizes ...uint8) uint16 {
	var m uint16
	for _, s := range sizes {
		m |= 1 << s
	}
	return m
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:  {"NOP", AddrNone, sizeMask(0)},
	OpHalt: {"HALT", AddrNone, sizeMask(0)},

	OpPushData:  {"PUSH_DATA", AddrData, sizeMask(1, 2, 4, 8)},
	OpPushAddr:  {"PUSH_ADDR", AddrData, sizeMask(4)},
	OpPushStack: {"PUSH_STACK", AddrStack, sizeMask(1, 2, 4, 8)},
	OpDrop:      {"DROP", AddrNone, sizeMask(1, 2, 4, 8)},

	OpAddI: {"ADD_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpSubI: {"SUB_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpMulI: {"MUL_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpDivI: {"DIV_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpModI: {"MOD_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpDivU: {"DIV_U", AddrNone, sizeMask(1, 2, 4, 8)},
	OpModU: {"MOD_U", AddrNone, sizeMask(1, 2, 4, 8)},

	OpAddF: {"ADD_F", AddrNone, sizeMask(2, 4, 8)},
	OpSubF: {"SUB_F", AddrNone, sizeMask(2, 4, 8)},
	OpMulF: {"MUL_F", AddrNone, sizeMask(2, 4, 8)},
	OpDivF: {"DIV_F", AddrNone, sizeMask(2, 4, 8)},

	OpPrintI: {"PRINT_I", AddrNone, sizeMask(1, 2, 4, 8)},
	OpPrintU: {"PRINT_U", AddrNone, sizeMask(1, 2, 4, 8)},
	OpPrintF: {"PRINT_F", AddrNone, sizeMask(2, 4, 8)},
	OpPrintB: {"PRINT_B", AddrNone, sizeMask(1)},
	OpPrintC: {"PRINT_C", AddrNone, sizeMask(2)},
	OpPrintS: {"PRINT_S", AddrNone, sizeMask(4)},
}

// GetOpcodeInfo returns metadata for the given opcode.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_0x%02X", uint8(op))}
}

func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// SizeLegal reports whether size is a legal operand width for op.
func (op Opcode) SizeLegal(size uint8) bool {
	info, ok := opcodeInfoTable[op]
	if !ok || size > 15 {
		return false
	}
	return info.Sizes&(1<<size) != 0
}

// IsBinary reports whether op pops two operands and pushes one result.
func (op Opcode) IsBinary() bool {
	return op >= OpAddI && op <= OpDivF && op.Valid()
}

// IsIntArith reports whether op is integer arithmetic.
func (op Opcode) IsIntArith() bool { return op >= OpAddI && op <= OpModU }

// IsFloatArith reports whether op is float arithmetic.
func (op Opcode) IsFloatArith() bool { return op >= OpAddF && op <= OpDivF }

// IsPrint reports whether op pops and prints one operand.
func (op Opcode) IsPrint() bool { return op >= OpPrintI && op <= OpPrintS }

// AllOpcodes returns every defined opcode.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		ops = append(ops, op)
	}
	return ops
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
