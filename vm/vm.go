// Package vm executes compiled tern scripts.
//
// The machine is a byte-granular stack interpreter. Instructions address
// the read-only data section of a script and an evaluation stack whose
// slots are raw little-endian bytes; operand widths come from each
// instruction's Size field, so the machine itself carries no type
// information at runtime. Malformed scripts produce errors, never panics.
package vm

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"unicode/utf16"

	"github.com/chazu/tern/bytecode"
)

// ---------------------------------------------------------------------------
// VM: script execution engine
// ---------------------------------------------------------------------------

// Options configures script execution.
type Options struct {
	// Output receives the text produced by print instructions. Defaults
	// to os.Stdout when nil.
	Output io.Writer

	// Trace, when non-nil, receives one line per executed instruction.
	Trace io.Writer
}

// VM executes a single compiled script.
type VM struct {
	script *bytecode.Script
	stack  []byte
	out    io.Writer
	trace  io.Writer
}

// New creates a VM for the given script.
func New(script *bytecode.Script, opts Options) *VM {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		script: script,
		stack:  make([]byte, 0, 128),
		out:    out,
		trace:  opts.Trace,
	}
}

// Run executes the script's instructions in order until a HALT
// instruction or the end of the stream. Any fault (unknown opcode,
// out-of-bounds access, stack underflow, integer division by zero)
// stops execution and is returned as an error naming the failing
// instruction.
func (vm *VM) Run() error {
	if vm.script == nil {
		return fmt.Errorf("no script loaded")
	}
	for idx, ins := range vm.script.Code {
		if vm.trace != nil {
			fmt.Fprintf(vm.trace, "%4d  %-10s addr=%-6d size=%d  depth=%d\n",
				idx, ins.Op, ins.Addr, ins.Size, len(vm.stack))
		}
		if ins.Op == bytecode.OpHalt {
			return nil
		}
		if err := vm.step(ins); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", idx, ins.Op, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

func (vm *VM) push(b []byte) {
	vm.stack = append(vm.stack, b...)
}

// pop removes and returns the top n bytes. The returned slice aliases
// the stack and is only valid until the next push.
func (vm *VM) pop(n uint8) ([]byte, error) {
	if len(vm.stack) < int(n) {
		return nil, fmt.Errorf("stack underflow: need %d bytes, have %d", n, len(vm.stack))
	}
	top := len(vm.stack) - int(n)
	b := vm.stack[top:]
	vm.stack = vm.stack[:top]
	return b, nil
}

// loadUint reads a little-endian value of up to 8 bytes, zero-extended.
func loadUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// loadInt reads a little-endian value of up to 8 bytes, sign-extended.
func loadInt(b []byte) int64 {
	shift := 64 - 8*uint(len(b))
	return int64(loadUint(b)<<shift) >> shift
}

// storeUint writes v little-endian into buf, truncating to len(buf).
func storeUint(buf []byte, v uint64) {
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
}

// ---------------------------------------------------------------------------
// Instruction execution
// ---------------------------------------------------------------------------

func (vm *VM) step(ins bytecode.Instruction) error {
	if !ins.Op.Valid() {
		return fmt.Errorf("unknown opcode 0x%02X", uint8(ins.Op))
	}
	if !ins.Op.SizeLegal(ins.Size) {
		return fmt.Errorf("illegal operand size %d", ins.Size)
	}

	switch {
	case ins.Op == bytecode.OpNop:
		return nil

	case ins.Op == bytecode.OpPushData:
		end := uint64(ins.Addr) + uint64(ins.Size)
		if end > uint64(len(vm.script.Data)) {
			return fmt.Errorf("data read out of bounds: offset %d size %d, data is %d bytes",
				ins.Addr, ins.Size, len(vm.script.Data))
		}
		vm.push(vm.script.Data[ins.Addr:end])
		return nil

	case ins.Op == bytecode.OpPushAddr:
		var buf [bytecode.AddressSize]byte
		storeUint(buf[:], uint64(ins.Addr))
		vm.push(buf[:])
		return nil

	case ins.Op == bytecode.OpPushStack:
		end := uint64(ins.Addr) + uint64(ins.Size)
		if end > uint64(len(vm.stack)) {
			return fmt.Errorf("stack read out of bounds: offset %d size %d, depth is %d",
				ins.Addr, ins.Size, len(vm.stack))
		}
		var buf [8]byte
		n := copy(buf[:ins.Size], vm.stack[ins.Addr:end])
		vm.push(buf[:n])
		return nil

	case ins.Op == bytecode.OpDrop:
		_, err := vm.pop(ins.Size)
		return err

	case ins.Op.IsIntArith():
		return vm.intArith(ins.Op, ins.Size)

	case ins.Op.IsFloatArith():
		return vm.floatArith(ins.Op, ins.Size)

	case ins.Op.IsPrint():
		return vm.print(ins.Op, ins.Size)
	}

	return fmt.Errorf("unknown opcode 0x%02X", uint8(ins.Op))
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// intArith pops two operands, right above left, and pushes the result.
// Add, subtract and multiply wrap in two's complement regardless of
// signedness; only the divide and modulo opcodes distinguish sign.
func (vm *VM) intArith(op bytecode.Opcode, size uint8) error {
	rb, err := vm.pop(size)
	if err != nil {
		return err
	}
	right := loadUint(rb)
	lb, err := vm.pop(size)
	if err != nil {
		return err
	}
	left := loadUint(lb)

	var result uint64
	switch op {
	case bytecode.OpAddI:
		result = left + right
	case bytecode.OpSubI:
		result = left - right
	case bytecode.OpMulI:
		result = left * right
	case bytecode.OpDivI, bytecode.OpModI:
		if right == 0 {
			return fmt.Errorf("integer division by zero")
		}
		a := signAt(left, size)
		b := signAt(right, size)
		if a == math.MinInt64 && b == -1 {
			// Overflow case: the quotient wraps to the dividend and
			// the remainder is zero. Go would fault on the division.
			if op == bytecode.OpDivI {
				result = uint64(a)
			} else {
				result = 0
			}
		} else if op == bytecode.OpDivI {
			result = uint64(a / b)
		} else {
			result = uint64(a % b)
		}
	case bytecode.OpDivU, bytecode.OpModU:
		if right == 0 {
			return fmt.Errorf("integer division by zero")
		}
		if op == bytecode.OpDivU {
			result = left / right
		} else {
			result = left % right
		}
	}

	var buf [8]byte
	storeUint(buf[:size], result)
	vm.push(buf[:size])
	return nil
}

// signAt reinterprets the low size bytes of v as a signed value.
func signAt(v uint64, size uint8) int64 {
	shift := 64 - 8*uint(size)
	return int64(v<<shift) >> shift
}

// floatArith pops two operands and pushes the result. Half-precision
// operands are widened to float32, computed, and narrowed back; 4 and 8
// byte operands are computed at their own precision. Division by zero
// follows IEEE 754 and yields an infinity or NaN rather than an error.
func (vm *VM) floatArith(op bytecode.Opcode, size uint8) error {
	rb, err := vm.pop(size)
	if err != nil {
		return err
	}
	right := loadUint(rb)
	lb, err := vm.pop(size)
	if err != nil {
		return err
	}
	left := loadUint(lb)

	var result uint64
	switch size {
	case 2:
		a := bytecode.Float16FromBits(uint16(left))
		b := bytecode.Float16FromBits(uint16(right))
		result = uint64(bytecode.Float16Bits(fop32(op, a, b)))
	case 4:
		a := math.Float32frombits(uint32(left))
		b := math.Float32frombits(uint32(right))
		result = uint64(math.Float32bits(fop32(op, a, b)))
	case 8:
		a := math.Float64frombits(left)
		b := math.Float64frombits(right)
		result = math.Float64bits(fop64(op, a, b))
	}

	var buf [8]byte
	storeUint(buf[:size], result)
	vm.push(buf[:size])
	return nil
}

func fop32(op bytecode.Opcode, a, b float32) float32 {
	switch op {
	case bytecode.OpAddF:
		return a + b
	case bytecode.OpSubF:
		return a - b
	case bytecode.OpMulF:
		return a * b
	default:
		return a / b
	}
}

func fop64(op bytecode.Opcode, a, b float64) float64 {
	switch op {
	case bytecode.OpAddF:
		return a + b
	case bytecode.OpSubF:
		return a - b
	case bytecode.OpMulF:
		return a * b
	default:
		return a / b
	}
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

func (vm *VM) print(op bytecode.Opcode, size uint8) error {
	b, err := vm.pop(size)
	if err != nil {
		return err
	}

	var text string
	switch op {
	case bytecode.OpPrintI:
		text = strconv.FormatInt(loadInt(b), 10)

	case bytecode.OpPrintU:
		text = strconv.FormatUint(loadUint(b), 10)

	case bytecode.OpPrintF:
		// Shortest representation that round-trips at the operand's
		// own precision; halves print at float32 precision.
		switch size {
		case 2:
			f := bytecode.Float16FromBits(uint16(loadUint(b)))
			text = strconv.FormatFloat(float64(f), 'g', -1, 32)
		case 4:
			f := math.Float32frombits(uint32(loadUint(b)))
			text = strconv.FormatFloat(float64(f), 'g', -1, 32)
		case 8:
			f := math.Float64frombits(loadUint(b))
			text = strconv.FormatFloat(f, 'g', -1, 64)
		}

	case bytecode.OpPrintB:
		if b[0] != 0 {
			text = "true"
		} else {
			text = "false"
		}

	case bytecode.OpPrintC:
		text = string(utf16.Decode([]uint16{uint16(loadUint(b))}))

	case bytecode.OpPrintS:
		s, err := bytecode.StringAt(vm.script.Data, uint32(loadUint(b)))
		if err != nil {
			return err
		}
		text = s
	}

	_, err = fmt.Fprintln(vm.out, text)
	return err
}
