package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/x448/float16"
)

// Kind identifies one of the primitive kinds a script's data section can
// hold. Every kind has a fixed byte width except KindString, whose width
// depends on the value.
type Kind uint8

const (
	KindI8 Kind = iota
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF16
	KindF32
	KindF64
	KindBool
	KindChar   // a single UTF-16 code unit
	KindString // u32 code-unit count followed by UTF-16LE code units
)

var kindNames = [...]string{
	KindI8:     "i8",
	KindI16:    "i16",
	KindI32:    "i32",
	KindI64:    "i64",
	KindU8:     "u8",
	KindU16:    "u16",
	KindU32:    "u32",
	KindU64:    "u64",
	KindF16:    "f16",
	KindF32:    "f32",
	KindF64:    "f64",
	KindBool:   "bool",
	KindChar:   "char",
	KindString: "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindFromName returns the kind named by a source-level type annotation.
func KindFromName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

var kindSizes = [...]uint32{
	KindI8:     1,
	KindI16:    2,
	KindI32:    4,
	KindI64:    8,
	KindU8:     1,
	KindU16:    2,
	KindU32:    4,
	KindU64:    8,
	KindF16:    2,
	KindF32:    4,
	KindF64:    8,
	KindBool:   1,
	KindChar:   2,
	KindString: 0,
}

// Size returns the byte width of k, or 0 for KindString whose width is
// value-dependent (see StringWidth).
func (k Kind) Size() uint32 {
	if int(k) < len(kindSizes) {
		return kindSizes[k]
	}
	return 0
}

func (k Kind) IsSigned() bool   { return k >= KindI8 && k <= KindI64 }
func (k Kind) IsUnsigned() bool { return k >= KindU8 && k <= KindU64 }
func (k Kind) IsInteger() bool  { return k.IsSigned() || k.IsUnsigned() }
func (k Kind) IsFloat() bool    { return k >= KindF16 && k <= KindF64 }
func (k Kind) IsNumeric() bool  { return k.IsInteger() || k.IsFloat() }

// ---------------------------------------------------------------------------
// Canonical bit patterns
//
// Every fixed-width value is reduced to the uint64 whose low Size() bytes
// are its little-endian encoding. The pool keys its deduplication maps on
// these bits, so two values collide exactly when their encodings collide.
// ---------------------------------------------------------------------------

// intBits truncates v to k's width, two's complement.
func intBits(k Kind, v int64) uint64 {
	return truncBits(uint64(v), k.Size())
}

// uintBits truncates v to k's width.
func uintBits(k Kind, v uint64) uint64 {
	return truncBits(v, k.Size())
}

func truncBits(bits uint64, size uint32) uint64 {
	if size >= 8 {
		return bits
	}
	return bits & (1<<(8*size) - 1)
}

// floatBits returns the IEEE 754 bit pattern of v at k's precision.
func floatBits(k Kind, v float64) uint64 {
	switch k {
	case KindF16:
		return uint64(float16.Fromfloat32(float32(v)).Bits())
	case KindF32:
		return uint64(math.Float32bits(float32(v)))
	case KindF64:
		return math.Float64bits(v)
	}
	panic(fmt.Sprintf("bytecode: floatBits on non-float kind %s", k))
}

func boolBits(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// putBits writes the low size bytes of bits into buf, little-endian.
func putBits(buf []byte, bits uint64, size uint32) {
	for i := uint32(0); i < size; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
}

// ---------------------------------------------------------------------------
// Strings
//
// A string constant occupies a u32 code-unit count followed by that many
// UTF-16 code units, all little-endian. Characters outside the BMP take two
// units (a surrogate pair), so the count is not the rune count.
// ---------------------------------------------------------------------------

// StringWidth returns the data-section width of s as a string constant.
func StringWidth(s string) uint32 {
	return 4 + 2*uint32(len(utf16.Encode([]rune(s))))
}

// stringBytes renders s in its data-section encoding.
func stringBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 4+2*len(units))
	binary.LittleEndian.PutUint32(buf, uint32(len(units)))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[4+2*i:], u)
	}
	return buf
}

// StringAt decodes the string constant at offset off in a finalized data
// section. The interpreter and the disassembler use it to resolve pushed
// string addresses.
func StringAt(data []byte, off uint32) (string, error) {
	if uint64(off)+4 > uint64(len(data)) {
		return "", fmt.Errorf("bytecode: string header at 0x%04X is outside the %d-byte data section", off, len(data))
	}
	count := binary.LittleEndian.Uint32(data[off:])
	end := uint64(off) + 4 + 2*uint64(count)
	if end > uint64(len(data)) {
		return "", fmt.Errorf("bytecode: string at 0x%04X claims %d code units but the data section ends at %d", off, count, len(data))
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[off+4+2*uint32(i):])
	}
	return string(utf16.Decode(units)), nil
}

// Float16FromBits converts a stored f16 bit pattern to float32. The
// interpreter computes f16 arithmetic at float32 precision and narrows the
// result back through Float16Bits.
func Float16FromBits(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// Float16Bits narrows v to an f16 bit pattern, rounding to nearest even.
func Float16Bits(v float32) uint16 {
	return float16.Fromfloat32(v).Bits()
}
