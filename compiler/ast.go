package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// AST: Abstract syntax tree for tern
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan builds a span from a start and end position.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLit represents an integer literal. Value holds the magnitude; a
// leading minus belongs to an enclosing Unary node. Suffix is the kind
// suffix ("u8" in 7u8), empty when absent.
type IntLit struct {
	SpanVal Span
	Value   uint64
	Suffix  string
}

func (n *IntLit) Span() Span { return n.SpanVal }
func (n *IntLit) node()      {}
func (n *IntLit) expr()      {}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	SpanVal Span
	Value   float64
	Suffix  string
}

func (n *FloatLit) Span() Span { return n.SpanVal }
func (n *FloatLit) node()      {}
func (n *FloatLit) expr()      {}

// StringLit represents a string literal with escapes already decoded.
type StringLit struct {
	SpanVal Span
	Value   string
}

func (n *StringLit) Span() Span { return n.SpanVal }
func (n *StringLit) node()      {}
func (n *StringLit) expr()      {}

// CharLit represents a character literal: one UTF-16 code unit.
type CharLit struct {
	SpanVal Span
	Value   uint16
}

func (n *CharLit) Span() Span { return n.SpanVal }
func (n *CharLit) node()      {}
func (n *CharLit) expr()      {}

// BoolLit represents true or false.
type BoolLit struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLit) Span() Span { return n.SpanVal }
func (n *BoolLit) node()      {}
func (n *BoolLit) expr()      {}

// Ident represents a variable reference.
type Ident struct {
	SpanVal Span
	Name    string
}

func (n *Ident) Span() Span { return n.SpanVal }
func (n *Ident) node()      {}
func (n *Ident) expr()      {}

// Unary represents a prefix operation; the only operator is minus.
type Unary struct {
	SpanVal Span
	Op      TokenType
	Operand Expr
}

func (n *Unary) Span() Span { return n.SpanVal }
func (n *Unary) node()      {}
func (n *Unary) expr()      {}

// Binary represents an infix arithmetic operation.
type Binary struct {
	SpanVal Span
	Op      TokenType
	Left    Expr
	Right   Expr
}

func (n *Binary) Span() Span { return n.SpanVal }
func (n *Binary) node()      {}
func (n *Binary) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Let represents a variable declaration: let name (: type)? = value ;
type Let struct {
	SpanVal  Span
	Name     string
	NamePos  Position
	TypeName string // declared kind name, empty when inferred
	Value    Expr
}

func (n *Let) Span() Span { return n.SpanVal }
func (n *Let) node()      {}
func (n *Let) stmt()      {}

// Print represents a print statement: print expr ;
type Print struct {
	SpanVal Span
	Value   Expr
}

func (n *Print) Span() Span { return n.SpanVal }
func (n *Print) node()      {}
func (n *Print) stmt()      {}

// ExprStmt represents an expression evaluated for effect and discarded.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}

// Program is the root node: an ordered list of statements.
type Program struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}

// ---------------------------------------------------------------------------
// Debug rendering
// ---------------------------------------------------------------------------

// ExprString renders an expression in a compact parenthesized form for
// tests and debugging.
func ExprString(e Expr) string {
	switch n := e.(type) {
	case *IntLit:
		return fmt.Sprintf("%d%s", n.Value, n.Suffix)
	case *FloatLit:
		return fmt.Sprintf("%g%s", n.Value, n.Suffix)
	case *StringLit:
		return fmt.Sprintf("%q", n.Value)
	case *CharLit:
		return fmt.Sprintf("'%c'", rune(n.Value))
	case *BoolLit:
		return fmt.Sprintf("%v", n.Value)
	case *Ident:
		return n.Name
	case *Unary:
		return fmt.Sprintf("(%s%s)", n.Op, ExprString(n.Operand))
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", ExprString(n.Left), n.Op, ExprString(n.Right))
	}
	return fmt.Sprintf("<%T>", e)
}

// StmtString renders a statement in a compact form for tests and
// debugging.
func StmtString(s Stmt) string {
	switch n := s.(type) {
	case *Let:
		if n.TypeName != "" {
			return fmt.Sprintf("let %s: %s = %s;", n.Name, n.TypeName, ExprString(n.Value))
		}
		return fmt.Sprintf("let %s = %s;", n.Name, ExprString(n.Value))
	case *Print:
		return fmt.Sprintf("print %s;", ExprString(n.Value))
	case *ExprStmt:
		return fmt.Sprintf("%s;", ExprString(n.Expr))
	}
	return fmt.Sprintf("<%T>", s)
}

// String renders the whole program, one statement per line.
func (n *Program) String() string {
	var b strings.Builder
	for _, s := range n.Statements {
		b.WriteString(StmtString(s))
		b.WriteByte('\n')
	}
	return b.String()
}
