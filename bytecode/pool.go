package bytecode

import "fmt"

// pointerSize is the alignment quantum of the data section. It is a fixed
// property of the script format, independent of the host platform.
const pointerSize = 8

// dataAlign is the alignment of the finalized data-section length.
const dataAlign = 16

// hole records reclaimable alignment padding inside the data section.
// Holes are kept in creation order and never coalesce, so allocation
// results depend only on the intern sequence.
type hole struct {
	off  uint32
	size uint32
}

// fixedKey identifies a fixed-width constant for deduplication. bits is
// the value's canonical encoding, so two constants share an entry exactly
// when they have the same kind and the same stored bytes. In particular
// float dedup is by bit pattern, which keeps 0.0 and -0.0 distinct.
type fixedKey struct {
	kind Kind
	bits uint64
}

type poolEntry struct {
	off  uint32
	size uint32
	kind Kind
	bits uint64 // fixed-width kinds
	str  string // KindString
}

// Pool assigns deduplicated, aligned data-section offsets to constants and
// renders the final data-section buffer. Interning the same values in the
// same order always yields the same offsets and the same bytes.
//
// Values whose width is a multiple of 8 are appended at the end of the
// section. Narrower values first try to fill a previously created hole
// (first fit, oldest hole first); failing that they are appended and the
// padding up to the next 8-byte boundary becomes a new hole.
type Pool struct {
	end   uint32
	holes []hole

	fixed   map[fixedKey]uint32
	strings map[string]uint32

	entries []poolEntry
}

// NewPool returns an empty constant pool.
func NewPool() *Pool {
	return &Pool{
		fixed:   make(map[fixedKey]uint32),
		strings: make(map[string]uint32),
	}
}

// InternInt interns a signed integer constant of kind k and returns its
// data-section address. k must be one of the signed kinds.
func (p *Pool) InternInt(k Kind, v int64) Address {
	if !k.IsSigned() {
		panic(fmt.Sprintf("bytecode: InternInt with non-signed kind %s", k))
	}
	return p.internFixed(k, intBits(k, v))
}

// InternUint interns an unsigned integer constant of kind k.
func (p *Pool) InternUint(k Kind, v uint64) Address {
	if !k.IsUnsigned() {
		panic(fmt.Sprintf("bytecode: InternUint with non-unsigned kind %s", k))
	}
	return p.internFixed(k, uintBits(k, v))
}

// InternFloat interns a float constant of kind k. The value is narrowed to
// k's precision before deduplication, so 1.5 interned as f32 and as f64
// are distinct entries while two f32 internings of 1.5 share one.
func (p *Pool) InternFloat(k Kind, v float64) Address {
	if !k.IsFloat() {
		panic(fmt.Sprintf("bytecode: InternFloat with non-float kind %s", k))
	}
	return p.internFixed(k, floatBits(k, v))
}

// InternBool interns a boolean constant.
func (p *Pool) InternBool(v bool) Address {
	return p.internFixed(KindBool, boolBits(v))
}

// InternChar interns a character constant, a single UTF-16 code unit.
func (p *Pool) InternChar(cu uint16) Address {
	return p.internFixed(KindChar, uint64(cu))
}

// InternString interns a string constant: a u32 code-unit count followed
// by the UTF-16LE code units.
func (p *Pool) InternString(s string) Address {
	if off, ok := p.strings[s]; ok {
		return DataAddr(off)
	}
	off := p.place(StringWidth(s))
	p.strings[s] = off
	p.entries = append(p.entries, poolEntry{off: off, size: StringWidth(s), kind: KindString, str: s})
	return DataAddr(off)
}

func (p *Pool) internFixed(k Kind, bits uint64) Address {
	key := fixedKey{k, bits}
	if off, ok := p.fixed[key]; ok {
		return DataAddr(off)
	}
	off := p.place(k.Size())
	p.fixed[key] = off
	p.entries = append(p.entries, poolEntry{off: off, size: k.Size(), kind: k, bits: bits})
	return DataAddr(off)
}

// place assigns a data-section offset to a new size-byte value.
func (p *Pool) place(size uint32) uint32 {
	if size == 0 {
		panic("bytecode: zero-size pool allocation")
	}
	if size%pointerSize == 0 {
		off := p.end
		p.end += size
		return off
	}
	for i := range p.holes {
		h := p.holes[i]
		if h.size < size {
			continue
		}
		if h.size == size {
			p.holes = append(p.holes[:i], p.holes[i+1:]...)
		} else {
			p.holes[i] = hole{off: h.off + size, size: h.size - size}
		}
		return h.off
	}
	off := p.end
	rounded := roundUp(size, pointerSize)
	p.holes = append(p.holes, hole{off: off + size, size: rounded - size})
	p.end += rounded
	return off
}

// Len returns the allocated data-section length before final alignment.
func (p *Pool) Len() uint32 { return p.end }

// Count returns the number of distinct constants interned so far.
func (p *Pool) Count() int { return len(p.entries) }

// Finalize renders the data section: every interned constant encoded
// little-endian at its assigned offset, unused bytes zero, total length
// rounded up to a multiple of 16. The pool remains usable afterwards;
// finalizing again after further interning re-renders the longer section
// with all previously assigned offsets unchanged.
func (p *Pool) Finalize() []byte {
	buf := make([]byte, roundUp(p.end, dataAlign))
	for _, e := range p.entries {
		if e.kind == KindString {
			copy(buf[e.off:], stringBytes(e.str))
		} else {
			putBits(buf[e.off:e.off+e.size], e.bits, e.size)
		}
	}
	return buf
}

// roundUp rounds n up to the next multiple of align, which must be a
// power of two.
func roundUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}
