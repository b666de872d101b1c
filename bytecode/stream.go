package bytecode

import "fmt"

// Stream accumulates instructions in emission order and tracks the
// abstract evaluation-stack depth in bytes. The depth model lets the
// lowering pipeline hand out stack addresses for temporaries and locals
// at compile time: after a binary operation the result occupies the top
// size bytes, so its address is depth minus size.
//
// Depth accounting going negative is a lowering bug, not an input error,
// and panics.
type Stream struct {
	code  []Instruction
	depth uint32
}

// NewStream returns an empty instruction stream.
func NewStream() *Stream {
	return &Stream{code: make([]Instruction, 0, 64)}
}

// PushData emits an instruction pushing size bytes read from the data
// section at addr, and grows the tracked depth by size.
func (s *Stream) PushData(addr Address, size uint8) Address {
	s.mustLoc(addr, LocData, OpPushData)
	s.mustSize(OpPushData, size)
	s.code = append(s.code, Instruction{OpPushData, addr.Off, size})
	s.depth += uint32(size)
	return StackAddr(s.depth - uint32(size))
}

// PushAddress emits an instruction pushing the 4-byte value addr.Off
// itself onto the stack. This is how string constants are referenced: the
// stack holds the address, the data section holds the text.
func (s *Stream) PushAddress(addr Address) Address {
	s.mustLoc(addr, LocData, OpPushAddr)
	s.code = append(s.code, Instruction{OpPushAddr, addr.Off, AddressSize})
	s.depth += AddressSize
	return StackAddr(s.depth - AddressSize)
}

// PushStack emits an instruction copying size bytes from stack offset
// addr to the top. The source must lie entirely below the current top.
func (s *Stream) PushStack(addr Address, size uint8) Address {
	s.mustLoc(addr, LocStack, OpPushStack)
	s.mustSize(OpPushStack, size)
	if uint64(addr.Off)+uint64(size) > uint64(s.depth) {
		panic(fmt.Sprintf("bytecode: PUSH_STACK source [0x%04X,0x%04X) is above the stack top 0x%04X",
			addr.Off, addr.Off+uint32(size), s.depth))
	}
	s.code = append(s.code, Instruction{OpPushStack, addr.Off, size})
	s.depth += uint32(size)
	return StackAddr(s.depth - uint32(size))
}

// Binary emits a sized binary operation: two size-byte operands are
// popped, one size-byte result is pushed. It returns the stack address of
// the result.
func (s *Stream) Binary(op Opcode, size uint8) Address {
	if !op.IsBinary() {
		panic(fmt.Sprintf("bytecode: %s is not a binary opcode", op))
	}
	s.mustSize(op, size)
	s.pop(2 * uint32(size))
	s.code = append(s.code, Instruction{op, 0, size})
	s.depth += uint32(size)
	return StackAddr(s.depth - uint32(size))
}

// Print emits an output instruction popping one size-byte operand.
func (s *Stream) Print(op Opcode, size uint8) {
	if !op.IsPrint() {
		panic(fmt.Sprintf("bytecode: %s is not a print opcode", op))
	}
	s.mustSize(op, size)
	s.pop(uint32(size))
	s.code = append(s.code, Instruction{op, 0, size})
}

// Drop emits an instruction popping size bytes.
func (s *Stream) Drop(size uint8) {
	s.mustSize(OpDrop, size)
	s.pop(uint32(size))
	s.code = append(s.code, Instruction{OpDrop, 0, size})
}

// Append emits an already-built instruction without touching the depth
// accounting. Control-flow opcodes with no stack effect go through here.
func (s *Stream) Append(in Instruction) {
	s.code = append(s.code, in)
}

// Depth returns the current abstract stack depth in bytes.
func (s *Stream) Depth() uint32 { return s.depth }

// Len returns the number of instructions emitted so far.
func (s *Stream) Len() int { return len(s.code) }

// Instructions returns the accumulated sequence. The slice is the
// stream's backing storage; callers must not modify it.
func (s *Stream) Instructions() []Instruction { return s.code }

func (s *Stream) pop(n uint32) {
	if n > s.depth {
		panic(fmt.Sprintf("bytecode: stack depth underflow: popping %d bytes at depth %d", n, s.depth))
	}
	s.depth -= n
}

func (s *Stream) mustLoc(addr Address, want Location, op Opcode) {
	if addr.Loc != want {
		panic(fmt.Sprintf("bytecode: %s requires a %s address, got %s", op, want, addr))
	}
}

func (s *Stream) mustSize(op Opcode, size uint8) {
	if !op.SizeLegal(size) {
		panic(fmt.Sprintf("bytecode: illegal size %d for %s", size, op))
	}
}
