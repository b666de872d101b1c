package hash

import (
	"github.com/chazu/tern/compiler"
)

// ---------------------------------------------------------------------------
// AST Normalization: compiler AST → frozen hashing AST
//
// Walks the compiler's working AST and produces the frozen hashing AST.
// Source positions are dropped and variable names are replaced by
// declaration-order slot indices, so reformatting a program, changing its
// comments, or renaming its variables leaves the hash unchanged.
// ---------------------------------------------------------------------------

// normalizer holds state for the normalization walk.
type normalizer struct {
	slots map[string]uint16 // variable name → slot index
	next  uint16
}

// NormalizeProgram transforms a parsed program into a frozen HProgram.
func NormalizeProgram(prog *compiler.Program) *HProgram {
	n := &normalizer{slots: make(map[string]uint16)}
	stmts := make([]HNode, len(prog.Statements))
	for i, s := range prog.Statements {
		stmts[i] = n.normalizeStmt(s)
	}
	return &HProgram{Statements: stmts}
}

// slotOf returns the slot for a variable, allocating on first sight.
// Allocation on reference keeps normalization total even for programs
// the semantic analyzer would reject.
func (n *normalizer) slotOf(name string) uint16 {
	if slot, ok := n.slots[name]; ok {
		return slot
	}
	slot := n.next
	n.slots[name] = slot
	n.next++
	return slot
}

// ---------------------------------------------------------------------------
// Statement normalization
// ---------------------------------------------------------------------------

func (n *normalizer) normalizeStmt(stmt compiler.Stmt) HNode {
	switch s := stmt.(type) {
	case *compiler.Let:
		value := n.normalizeExpr(s.Value)
		return &HLet{
			Slot:     n.slotOf(s.Name),
			TypeName: s.TypeName,
			Value:    value,
		}
	case *compiler.Print:
		return &HPrint{Value: n.normalizeExpr(s.Value)}
	case *compiler.ExprStmt:
		return &HExprStmt{Expr: n.normalizeExpr(s.Expr)}
	default:
		// Unknown statement type, should not happen
		return &HExprStmt{Expr: &HBoolLiteral{}}
	}
}

// ---------------------------------------------------------------------------
// Expression normalization
// ---------------------------------------------------------------------------

func (n *normalizer) normalizeExpr(expr compiler.Expr) HNode {
	switch e := expr.(type) {
	case *compiler.IntLit:
		return &HIntLiteral{Value: e.Value, Suffix: e.Suffix}
	case *compiler.FloatLit:
		return &HFloatLiteral{Value: e.Value, Suffix: e.Suffix}
	case *compiler.StringLit:
		return &HStringLiteral{Value: e.Value}
	case *compiler.CharLit:
		return &HCharLiteral{Value: e.Value}
	case *compiler.BoolLit:
		return &HBoolLiteral{Value: e.Value}
	case *compiler.Ident:
		return &HVarRef{Slot: n.slotOf(e.Name)}
	case *compiler.Unary:
		return &HUnary{
			Op:      e.Op.String(),
			Operand: n.normalizeExpr(e.Operand),
		}
	case *compiler.Binary:
		return &HBinary{
			Op:    e.Op.String(),
			Left:  n.normalizeExpr(e.Left),
			Right: n.normalizeExpr(e.Right),
		}
	default:
		// Unknown expression type, should not happen
		return &HBoolLiteral{}
	}
}
