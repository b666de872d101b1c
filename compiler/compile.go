package compiler

import (
	"github.com/chazu/tern/bytecode"
)

// ---------------------------------------------------------------------------
// Compilation pipeline
// ---------------------------------------------------------------------------

// Options configure a compilation.
type Options struct {
	// Source is the path recorded in the debug sidecar. It is metadata
	// only; the input text is passed to Compile directly.
	Source string
	// Debug enables recording of the debug sidecar.
	Debug bool
}

// VarSym describes a declared variable for tooling. The language server
// uses these to answer hover requests.
type VarSym struct {
	Name string
	Kind bytecode.Kind
	Decl Span // the variable name in its let statement
}

// Result is a successful compilation.
type Result struct {
	Script  *bytecode.Script
	Debug   *bytecode.DebugInfo // nil unless Options.Debug
	Program *Program
	Vars    []VarSym
}

// Compile runs the full pipeline on input: lex and parse, semantic
// analysis, then lowering to bytecode. It returns a nil Result when any
// stage reports errors. The returned diagnostics may contain warnings
// even on success.
//
// Each stage only runs when the previous one found no errors, so later
// stages can assume well-formed input: the analyzer sees a complete AST,
// and the code generator sees a program whose names all resolve.
func Compile(input string, opts Options) (*Result, []Diagnostic) {
	parser := NewParser(input)
	prog := parser.ParseProgram()
	diags := parser.Diagnostics()
	if HasErrors(diags) {
		return nil, diags
	}

	diags = append(diags, Analyze(prog)...)
	if HasErrors(diags) {
		return nil, diags
	}

	comp := NewCompiler()
	if opts.Debug {
		comp.EmitDebugInfo(opts.Source)
	}
	comp.CompileProgram(prog)
	diags = append(diags, comp.Diagnostics()...)
	if HasErrors(diags) {
		return nil, diags
	}

	return &Result{
		Script:  comp.Script(),
		Debug:   comp.DebugInfo(),
		Program: prog,
		Vars:    collectVars(prog, comp),
	}, diags
}

// KindOf returns the resolved kind of a declared variable.
func (c *Compiler) KindOf(name string) (bytecode.Kind, bool) {
	k, ok := c.varKinds[name]
	return k, ok
}

func collectVars(prog *Program, comp *Compiler) []VarSym {
	var vars []VarSym
	for _, stmt := range prog.Statements {
		let, ok := stmt.(*Let)
		if !ok {
			continue
		}
		k, ok := comp.KindOf(let.Name)
		if !ok {
			continue
		}
		end := let.NamePos
		end.Offset += len(let.Name)
		end.Column += len(let.Name)
		vars = append(vars, VarSym{Name: let.Name, Kind: k, Decl: MakeSpan(let.NamePos, end)})
	}
	return vars
}
