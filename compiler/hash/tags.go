package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the hashing AST serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed content hashes.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing content hashes.
const HashVersion byte = 1

// AST node type tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal values
	TagIntLiteral    byte = 0x01
	TagFloatLiteral  byte = 0x02
	TagStringLiteral byte = 0x03
	TagCharLiteral   byte = 0x04
	TagBoolLiteral   byte = 0x05

	// Variable references (slot indexed)
	TagVarRef byte = 0x06

	// Operators
	TagUnary  byte = 0x07
	TagBinary byte = 0x08

	// Statements / structure
	TagLet      byte = 0x09
	TagPrint    byte = 0x0A
	TagExprStmt byte = 0x0B
	TagProgram  byte = 0x0C

	// 0x0D-0xFD reserved for future nodes; 0xFE-0xFF never assigned
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagIntLiteral, TagFloatLiteral, TagStringLiteral, TagCharLiteral,
	TagBoolLiteral,
	TagVarRef,
	TagUnary, TagBinary,
	TagLet, TagPrint, TagExprStmt, TagProgram,
}
