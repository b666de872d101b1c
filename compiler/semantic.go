package compiler

import (
	"github.com/chazu/tern/bytecode"
)

// ---------------------------------------------------------------------------
// Semantic Analyzer: Pre-lowering name and declaration checks
// ---------------------------------------------------------------------------

// SemanticAnalyzer performs semantic analysis on the AST before lowering.
// It checks declarations and references; kind checking happens during
// lowering, where literal adaptation is decided.
type SemanticAnalyzer struct {
	diags []Diagnostic

	// declared maps variable names to their declaration position, in
	// program order.
	declared map[string]Position
	used     map[string]bool
	order    []string
}

// NewSemanticAnalyzer creates a new semantic analyzer.
func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{
		declared: make(map[string]Position),
		used:     make(map[string]bool),
	}
}

// Diagnostics returns accumulated analysis diagnostics.
func (s *SemanticAnalyzer) Diagnostics() []Diagnostic {
	return s.diags
}

// errorAt records an error with position information.
func (s *SemanticAnalyzer) errorAt(node Node, format string, args ...interface{}) {
	s.diags = append(s.diags, errorDiag(node.Span().Start, format, args...))
}

// AnalyzeProgram performs semantic analysis on a whole program.
func (s *SemanticAnalyzer) AnalyzeProgram(prog *Program) {
	for _, stmt := range prog.Statements {
		s.analyzeStmt(stmt)
	}
	s.checkUnusedVariables()
}

// analyzeStmt analyzes a single statement.
func (s *SemanticAnalyzer) analyzeStmt(stmt Stmt) {
	switch st := stmt.(type) {
	case *Let:
		// The initializer is checked first: a variable is not in scope
		// inside its own initializer.
		s.analyzeExpr(st.Value)
		if prev, dup := s.declared[st.Name]; dup {
			s.diags = append(s.diags, errorDiag(st.NamePos,
				"variable '%s' already declared at line %d", st.Name, prev.Line))
			return
		}
		if st.TypeName != "" {
			if _, ok := bytecode.KindFromName(st.TypeName); !ok {
				s.errorAt(st, "unknown type '%s'", st.TypeName)
			}
		}
		s.declared[st.Name] = st.NamePos
		s.order = append(s.order, st.Name)
	case *Print:
		s.analyzeExpr(st.Value)
	case *ExprStmt:
		s.analyzeExpr(st.Expr)
	}
}

// analyzeExpr analyzes an expression.
func (s *SemanticAnalyzer) analyzeExpr(expr Expr) {
	switch e := expr.(type) {
	case *Ident:
		s.checkVariableDefined(e)
	case *Unary:
		s.analyzeExpr(e.Operand)
	case *Binary:
		s.analyzeExpr(e.Left)
		s.analyzeExpr(e.Right)
	case *IntLit, *FloatLit, *StringLit, *CharLit, *BoolLit:
		// Literals need no name checks.
	}
}

// checkVariableDefined checks that a referenced variable was declared
// earlier in the program.
func (s *SemanticAnalyzer) checkVariableDefined(v *Ident) {
	if _, ok := s.declared[v.Name]; ok {
		s.used[v.Name] = true
		return
	}
	s.errorAt(v, "undefined variable '%s'", v.Name)
}

// checkUnusedVariables warns about variables that are declared but never
// referenced.
func (s *SemanticAnalyzer) checkUnusedVariables() {
	for _, name := range s.order {
		if !s.used[name] {
			s.diags = append(s.diags, warningDiag(s.declared[name],
				"variable '%s' declared but never used", name))
		}
	}
}

// Analyze runs semantic analysis on a program and returns its
// diagnostics.
func Analyze(prog *Program) []Diagnostic {
	analyzer := NewSemanticAnalyzer()
	analyzer.AnalyzeProgram(prog)
	return analyzer.Diagnostics()
}
