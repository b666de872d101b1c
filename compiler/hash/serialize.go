package hash

import (
	"encoding/binary"
	"math"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of the frozen hashing AST.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian fixed-width (uint64=8B, uint16=2B)
//   - Floats: IEEE 754 big-endian 8B
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Child nodes: serialized inline (flat)
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of an HNode tree.
// The returned bytes are suitable for hashing with SHA-256.
func Serialize(node HNode) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	s.serializeNode(node)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeFloat64(v float64) {
	s.writeUint64(math.Float64bits(v))
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeNode(node HNode) {
	switch n := node.(type) {
	case *HIntLiteral:
		s.writeByte(TagIntLiteral)
		s.writeUint64(n.Value)
		s.writeString(n.Suffix)

	case *HFloatLiteral:
		s.writeByte(TagFloatLiteral)
		s.writeFloat64(n.Value)
		s.writeString(n.Suffix)

	case *HStringLiteral:
		s.writeByte(TagStringLiteral)
		s.writeString(n.Value)

	case *HCharLiteral:
		s.writeByte(TagCharLiteral)
		s.writeUint16(n.Value)

	case *HBoolLiteral:
		s.writeByte(TagBoolLiteral)
		if n.Value {
			s.writeByte(1)
		} else {
			s.writeByte(0)
		}

	case *HVarRef:
		s.writeByte(TagVarRef)
		s.writeUint16(n.Slot)

	case *HUnary:
		s.writeByte(TagUnary)
		s.writeString(n.Op)
		s.serializeNode(n.Operand)

	case *HBinary:
		s.writeByte(TagBinary)
		s.writeString(n.Op)
		s.serializeNode(n.Left)
		s.serializeNode(n.Right)

	case *HLet:
		s.writeByte(TagLet)
		s.writeUint16(n.Slot)
		s.writeString(n.TypeName)
		s.serializeNode(n.Value)

	case *HPrint:
		s.writeByte(TagPrint)
		s.serializeNode(n.Value)

	case *HExprStmt:
		s.writeByte(TagExprStmt)
		s.serializeNode(n.Expr)

	case *HProgram:
		s.writeByte(TagProgram)
		s.writeUint32(uint32(len(n.Statements)))
		for _, stmt := range n.Statements {
			s.serializeNode(stmt)
		}
	}
}
