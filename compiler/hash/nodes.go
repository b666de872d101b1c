package hash

// ---------------------------------------------------------------------------
// Frozen hashing AST types.
//
// These are stripped-down parallels of compiler/ast.go with no Span/position
// data and declaration-order slot indices instead of variable names. Two
// programs with the same semantics (same statements, ignoring variable
// names, literal radix and formatting) produce identical hashing ASTs.
// ---------------------------------------------------------------------------

// HNode is the interface implemented by all hashing AST nodes.
type HNode interface {
	hnode() // marker method
}

// ---------------------------------------------------------------------------
// Literal nodes
// ---------------------------------------------------------------------------

// HIntLiteral carries an integer literal's magnitude and kind suffix.
// The magnitude is the parsed value, so 0xFF and 255 hash identically.
type HIntLiteral struct {
	Value  uint64
	Suffix string
}

// HFloatLiteral carries a float literal's parsed value and kind suffix,
// so 1e1 and 10.0 hash identically.
type HFloatLiteral struct {
	Value  float64
	Suffix string
}

type HStringLiteral struct{ Value string }
type HCharLiteral struct{ Value uint16 }
type HBoolLiteral struct{ Value bool }

func (*HIntLiteral) hnode()    {}
func (*HFloatLiteral) hnode()  {}
func (*HStringLiteral) hnode() {}
func (*HCharLiteral) hnode()   {}
func (*HBoolLiteral) hnode()   {}

// ---------------------------------------------------------------------------
// Variable reference nodes (slot indexed)
// ---------------------------------------------------------------------------

// HVarRef references a variable by its declaration-order slot.
type HVarRef struct {
	Slot uint16
}

func (*HVarRef) hnode() {}

// ---------------------------------------------------------------------------
// Operator nodes
// ---------------------------------------------------------------------------

// HUnary is a prefix operation. Op is the operator's source spelling.
type HUnary struct {
	Op      string
	Operand HNode
}

// HBinary is an infix operation. Op is the operator's source spelling.
type HBinary struct {
	Op    string
	Left  HNode
	Right HNode
}

func (*HUnary) hnode()  {}
func (*HBinary) hnode() {}

// ---------------------------------------------------------------------------
// Statement / structure nodes
// ---------------------------------------------------------------------------

// HLet is a variable declaration, stripped of the variable's name.
// TypeName is the declared kind name, empty when inferred.
type HLet struct {
	Slot     uint16
	TypeName string
	Value    HNode
}

type HPrint struct {
	Value HNode
}

type HExprStmt struct {
	Expr HNode
}

// HProgram is the top-level hashing node for a program.
type HProgram struct {
	Statements []HNode
}

func (*HLet) hnode()      {}
func (*HPrint) hnode()    {}
func (*HExprStmt) hnode() {}
func (*HProgram) hnode()  {}
