package compiler

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"

	"github.com/chazu/tern/bytecode"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to bytecode
// ---------------------------------------------------------------------------

// noKind marks the absence of an expected kind during inference.
const noKind = bytecode.Kind(0xFF)

// variable records where a declared variable lives on the evaluation stack.
type variable struct {
	off  uint32
	kind bytecode.Kind
}

// stmtInfo is the result of typing one statement: the kind of its value
// expression, if typing succeeded.
type stmtInfo struct {
	kind bytecode.Kind
	ok   bool
}

// Compiler lowers a semantically checked program to bytecode. Lowering is
// two passes over the statement list: a typing pass that resolves the kind
// of every statement's expression, adapting literals to their context, and
// an emission pass that interns constants into the pool and appends
// instructions to the stream. Emission only runs when typing found no
// errors, so the stream's depth accounting never trips on bad input.
//
// Variables live directly on the evaluation stack: a let statement leaves
// its value in place and records the offset, and later references copy
// from that slot. After any statement the stack holds exactly the declared
// variables, in declaration order.
type Compiler struct {
	pool   *bytecode.Pool
	stream *bytecode.Stream

	// varKinds is filled by the typing pass, vars by the emission pass.
	varKinds map[string]bytecode.Kind
	vars     map[string]variable
	info     []stmtInfo

	debug *bytecode.DebugInfo
	diags []Diagnostic
}

// NewCompiler creates a compiler with an empty pool and stream.
func NewCompiler() *Compiler {
	return &Compiler{
		pool:     bytecode.NewPool(),
		stream:   bytecode.NewStream(),
		varKinds: make(map[string]bytecode.Kind),
		vars:     make(map[string]variable),
	}
}

// EmitDebugInfo makes the compiler record a debug sidecar while lowering.
// source is the path recorded in the sidecar.
func (c *Compiler) EmitDebugInfo(source string) {
	c.debug = &bytecode.DebugInfo{Source: source}
}

// Diagnostics returns accumulated lowering diagnostics.
func (c *Compiler) Diagnostics() []Diagnostic {
	return c.diags
}

// Script assembles the compiled script from the pool and stream contents.
func (c *Compiler) Script() *bytecode.Script {
	return &bytecode.Script{
		Data: c.pool.Finalize(),
		Code: c.stream.Instructions(),
	}
}

// DebugInfo returns the recorded debug sidecar, or nil when debug
// recording was not enabled.
func (c *Compiler) DebugInfo() *bytecode.DebugInfo {
	return c.debug
}

func (c *Compiler) errorAt(node Node, format string, args ...interface{}) {
	c.diags = append(c.diags, errorDiag(node.Span().Start, format, args...))
}

// CompileProgram lowers a whole program and terminates it with HALT.
func (c *Compiler) CompileProgram(prog *Program) {
	c.typeProgram(prog)
	if HasErrors(c.diags) {
		return
	}
	for i, stmt := range prog.Statements {
		c.emitStmt(stmt, c.info[i])
	}
	c.stream.Append(bytecode.Instruction{Op: bytecode.OpHalt})
}

// ---------------------------------------------------------------------------
// Typing pass
// ---------------------------------------------------------------------------

func (c *Compiler) typeProgram(prog *Program) {
	c.info = make([]stmtInfo, len(prog.Statements))
	for i, stmt := range prog.Statements {
		c.info[i] = c.typeStmt(stmt)
	}
}

func (c *Compiler) typeStmt(stmt Stmt) stmtInfo {
	switch st := stmt.(type) {
	case *Let:
		want := noKind
		if st.TypeName != "" {
			k, ok := bytecode.KindFromName(st.TypeName)
			if !ok {
				return stmtInfo{}
			}
			want = k
		}
		k, ok := c.typeExpr(st.Value, want)
		if !ok {
			return stmtInfo{}
		}
		c.varKinds[st.Name] = k
		return stmtInfo{kind: k, ok: true}
	case *Print:
		k, ok := c.typeExpr(st.Value, noKind)
		if !ok {
			return stmtInfo{}
		}
		return stmtInfo{kind: k, ok: true}
	case *ExprStmt:
		k, ok := c.typeExpr(st.Expr, noKind)
		if !ok {
			return stmtInfo{}
		}
		return stmtInfo{kind: k, ok: true}
	}
	return stmtInfo{}
}

// typeExpr resolves the kind of an expression. want is the kind the
// context requires, or noKind when the expression picks its own: literals
// adapt to want when their value allows it, while variables already have a
// fixed kind and must match exactly.
func (c *Compiler) typeExpr(e Expr, want bytecode.Kind) (bytecode.Kind, bool) {
	if cv, ok := constOf(e); ok {
		return c.typeConst(e, cv, want)
	}
	switch n := e.(type) {
	case *Ident:
		k, ok := c.varKinds[n.Name]
		if !ok {
			// The declaration failed to type; its error is already reported.
			return 0, false
		}
		if want != noKind && k != want {
			c.errorAt(n, "mismatched kinds %s and %s", k, want)
			return 0, false
		}
		return k, true
	case *Unary:
		k, ok := c.typeExpr(n.Operand, want)
		if !ok {
			return 0, false
		}
		if !k.IsNumeric() {
			c.errorAt(n, "operator '-' requires a numeric operand, got %s", k)
			return 0, false
		}
		return k, true
	case *Binary:
		return c.typeBinary(n, want)
	}
	return 0, false
}

func (c *Compiler) typeConst(e Expr, cv constVal, want bytecode.Kind) (bytecode.Kind, bool) {
	// A suffixed literal is exactly its named kind and never adapts.
	if cv.suffix != "" {
		k, _ := bytecode.KindFromName(cv.suffix)
		if !cv.adaptsTo(k) {
			c.errorAt(e, "constant %s does not fit %s", cv.describe(), k)
			return 0, false
		}
		if want != noKind && want != k {
			c.errorAt(e, "mismatched kinds %s and %s", k, want)
			return 0, false
		}
		return k, true
	}
	if want != noKind {
		if !cv.adaptsTo(want) {
			c.errorAt(e, "constant %s does not fit %s", cv.describe(), want)
			return 0, false
		}
		return want, true
	}
	k, ok := cv.defaultKind()
	if !ok {
		c.errorAt(e, "integer constant %s out of range", cv.describe())
		return 0, false
	}
	return k, true
}

// typeBinary unifies the operand kinds of a binary expression. With no
// contextual kind the sides must agree, except that an unsuffixed literal
// operand adapts to the other side's kind when its value allows it.
func (c *Compiler) typeBinary(n *Binary, want bytecode.Kind) (bytecode.Kind, bool) {
	lk, lok := c.typeExpr(n.Left, want)
	rk, rok := c.typeExpr(n.Right, want)
	if !lok || !rok {
		return 0, false
	}
	k := lk
	if lk != rk {
		if rc, ok := constOf(n.Right); ok && rc.suffix == "" && rc.adaptsTo(lk) {
			k = lk
		} else if lc, ok := constOf(n.Left); ok && lc.suffix == "" && lc.adaptsTo(rk) {
			k = rk
		} else {
			c.errorAt(n, "mismatched kinds %s and %s", lk, rk)
			return 0, false
		}
	}
	if !k.IsNumeric() {
		c.errorAt(n, "operator '%s' requires numeric operands, got %s", n.Op, k)
		return 0, false
	}
	if n.Op == TokenPercent && !k.IsInteger() {
		c.errorAt(n, "operator '%%' requires integer operands, got %s", k)
		return 0, false
	}
	return k, true
}

// ---------------------------------------------------------------------------
// Emission pass
// ---------------------------------------------------------------------------

func (c *Compiler) emitStmt(stmt Stmt, info stmtInfo) {
	if c.debug != nil {
		start := stmt.Span().Start
		c.debug.Lines = append(c.debug.Lines, bytecode.LineEntry{
			Index:  uint32(c.stream.Len()),
			Line:   uint32(start.Line),
			Column: uint32(start.Column),
		})
	}
	switch st := stmt.(type) {
	case *Let:
		addr := c.emitExpr(st.Value, info.kind)
		c.vars[st.Name] = variable{off: addr.Off, kind: info.kind}
		if c.debug != nil {
			c.debug.Vars = append(c.debug.Vars, bytecode.VarEntry{
				Name:   st.Name,
				Offset: addr.Off,
				Kind:   info.kind,
			})
		}
	case *Print:
		c.emitExpr(st.Value, info.kind)
		c.stream.Print(printOp(info.kind), slotSize(info.kind))
	case *ExprStmt:
		c.emitExpr(st.Expr, info.kind)
		c.stream.Drop(slotSize(info.kind))
	}
}

// emitExpr lowers an expression whose kind was already resolved to k, and
// returns the stack address of the pushed result.
func (c *Compiler) emitExpr(e Expr, k bytecode.Kind) bytecode.Address {
	if cv, ok := constOf(e); ok {
		return c.emitConst(cv, k)
	}
	switch n := e.(type) {
	case *Ident:
		v := c.vars[n.Name]
		return c.stream.PushStack(bytecode.StackAddr(v.off), slotSize(k))
	case *Unary:
		// There is no negate opcode: subtract the operand from zero.
		c.emitConst(zeroVal(k), k)
		c.emitExpr(n.Operand, k)
		return c.stream.Binary(subOp(k), slotSize(k))
	case *Binary:
		c.emitExpr(n.Left, k)
		c.emitExpr(n.Right, k)
		return c.stream.Binary(arithOp(n.Op, k), slotSize(k))
	}
	panic(fmt.Sprintf("compiler: unexpected expression %T in lowering", e))
}

func (c *Compiler) emitConst(cv constVal, k bytecode.Kind) bytecode.Address {
	addr := c.internConst(cv, k)
	if k == bytecode.KindString {
		return c.stream.PushAddress(addr)
	}
	return c.stream.PushData(addr, slotSize(k))
}

func (c *Compiler) internConst(cv constVal, k bytecode.Kind) bytecode.Address {
	switch {
	case k.IsSigned():
		v := int64(cv.mag)
		if cv.neg {
			v = -v
		}
		return c.pool.InternInt(k, v)
	case k.IsUnsigned():
		return c.pool.InternUint(k, cv.mag)
	case k.IsFloat():
		if cv.class == constInt {
			f := float64(cv.mag)
			if cv.neg {
				f = -f
			}
			return c.pool.InternFloat(k, f)
		}
		return c.pool.InternFloat(k, cv.f)
	case k == bytecode.KindBool:
		return c.pool.InternBool(cv.b)
	case k == bytecode.KindChar:
		return c.pool.InternChar(cv.c)
	case k == bytecode.KindString:
		return c.pool.InternString(cv.s)
	}
	panic(fmt.Sprintf("compiler: cannot intern constant as %s", k))
}

// slotSize is the evaluation-stack width of a value of kind k. Strings
// live in the data section; their stack slot holds the 4-byte address.
func slotSize(k bytecode.Kind) uint8 {
	if k == bytecode.KindString {
		return bytecode.AddressSize
	}
	return uint8(k.Size())
}

// zeroVal is the zero constant of kind k, used to lower unary minus.
func zeroVal(k bytecode.Kind) constVal {
	if k.IsFloat() {
		return constVal{class: constFloat}
	}
	return constVal{class: constInt}
}

func subOp(k bytecode.Kind) bytecode.Opcode {
	if k.IsFloat() {
		return bytecode.OpSubF
	}
	return bytecode.OpSubI
}

// arithOp selects the opcode for a binary operator at kind k. Division
// and remainder distinguish signed from unsigned operands; the other
// operations are sign-agnostic under two's complement.
func arithOp(op TokenType, k bytecode.Kind) bytecode.Opcode {
	if k.IsFloat() {
		switch op {
		case TokenPlus:
			return bytecode.OpAddF
		case TokenMinus:
			return bytecode.OpSubF
		case TokenStar:
			return bytecode.OpMulF
		case TokenSlash:
			return bytecode.OpDivF
		}
		panic(fmt.Sprintf("compiler: no float opcode for operator %s", op))
	}
	switch op {
	case TokenPlus:
		return bytecode.OpAddI
	case TokenMinus:
		return bytecode.OpSubI
	case TokenStar:
		return bytecode.OpMulI
	case TokenSlash:
		if k.IsUnsigned() {
			return bytecode.OpDivU
		}
		return bytecode.OpDivI
	case TokenPercent:
		if k.IsUnsigned() {
			return bytecode.OpModU
		}
		return bytecode.OpModI
	}
	panic(fmt.Sprintf("compiler: no integer opcode for operator %s", op))
}

func printOp(k bytecode.Kind) bytecode.Opcode {
	switch {
	case k.IsSigned():
		return bytecode.OpPrintI
	case k.IsUnsigned():
		return bytecode.OpPrintU
	case k.IsFloat():
		return bytecode.OpPrintF
	case k == bytecode.KindBool:
		return bytecode.OpPrintB
	case k == bytecode.KindChar:
		return bytecode.OpPrintC
	}
	return bytecode.OpPrintS
}

// ---------------------------------------------------------------------------
// Compile-time constants
// ---------------------------------------------------------------------------

type constClass uint8

const (
	constInt constClass = iota
	constFloat
	constBool
	constChar
	constString
)

// constVal is the value of a literal, or of unary minus applied to a
// numeric literal. Lowering works directly from these; there is no
// general constant folding, so 1 + 2 compiles to two pushes and an add.
type constVal struct {
	class  constClass
	suffix string // kind suffix on a numeric literal, "" if none

	neg bool   // constInt: the value is -mag
	mag uint64 // constInt magnitude
	f   float64
	b   bool
	c   uint16
	s   string
}

// constOf extracts the constant value of an expression, when it is a
// literal or unary minus over a numeric literal.
func constOf(e Expr) (constVal, bool) {
	switch n := e.(type) {
	case *IntLit:
		return constVal{class: constInt, mag: n.Value, suffix: n.Suffix}, true
	case *FloatLit:
		return constVal{class: constFloat, f: n.Value, suffix: n.Suffix}, true
	case *BoolLit:
		return constVal{class: constBool, b: n.Value}, true
	case *CharLit:
		return constVal{class: constChar, c: n.Value}, true
	case *StringLit:
		return constVal{class: constString, s: n.Value}, true
	case *Unary:
		if n.Op != TokenMinus {
			return constVal{}, false
		}
		cv, ok := constOf(n.Operand)
		if !ok {
			return constVal{}, false
		}
		switch cv.class {
		case constInt:
			if cv.mag != 0 {
				cv.neg = !cv.neg
			}
			return cv, true
		case constFloat:
			cv.f = -cv.f
			return cv, true
		}
	}
	return constVal{}, false
}

// defaultKind is the kind a constant takes with no contextual kind. An
// unsuffixed integer defaults to i32, widening to i64 and then u64 as the
// value demands; an unsuffixed float defaults to f64. ok is false when no
// kind can hold the value.
func (v constVal) defaultKind() (bytecode.Kind, bool) {
	if v.suffix != "" {
		k, ok := bytecode.KindFromName(v.suffix)
		return k, ok
	}
	switch v.class {
	case constInt:
		for _, k := range [...]bytecode.Kind{bytecode.KindI32, bytecode.KindI64, bytecode.KindU64} {
			if v.fitsInt(k) {
				return k, true
			}
		}
		return 0, false
	case constFloat:
		return bytecode.KindF64, true
	case constBool:
		return bytecode.KindBool, true
	case constChar:
		return bytecode.KindChar, true
	case constString:
		return bytecode.KindString, true
	}
	return 0, false
}

// adaptsTo reports whether the constant can be materialized at kind k.
// Integer constants adapt to any integer kind that holds the value and to
// float kinds where the value is exactly representable. Float constants
// adapt to any float kind, since a decimal literal denotes a real that
// rounds to the target precision; the only rejection is a finite literal
// overflowing to infinity. Bool, char and string constants have exactly
// one kind.
func (v constVal) adaptsTo(k bytecode.Kind) bool {
	switch v.class {
	case constInt:
		if k.IsInteger() {
			return v.fitsInt(k)
		}
		if k.IsFloat() {
			return v.exactFloat(k)
		}
		return false
	case constFloat:
		if !k.IsFloat() {
			return false
		}
		switch k {
		case bytecode.KindF16:
			return !math.IsInf(float64(bytecode.Float16FromBits(bytecode.Float16Bits(float32(v.f)))), 0)
		case bytecode.KindF32:
			return !math.IsInf(float64(float32(v.f)), 0)
		}
		return true
	case constBool:
		return k == bytecode.KindBool
	case constChar:
		return k == bytecode.KindChar
	case constString:
		return k == bytecode.KindString
	}
	return false
}

// fitsInt reports whether the integer constant is within k's range.
func (v constVal) fitsInt(k bytecode.Kind) bool {
	w := 8 * k.Size()
	if v.neg {
		return k.IsSigned() && v.mag <= uint64(1)<<(w-1)
	}
	var max uint64
	switch {
	case k.IsSigned():
		max = uint64(1)<<(w-1) - 1
	case w == 64:
		max = math.MaxUint64
	default:
		max = uint64(1)<<w - 1
	}
	return v.mag <= max
}

// exactFloat reports whether the integer constant is exactly representable
// at float kind k. A value is exact when its significant bit span fits the
// kind's significand: 11 bits for f16, 24 for f32, 53 for f64. f16
// additionally caps at its largest finite value, 65504.
func (v constVal) exactFloat(k bytecode.Kind) bool {
	if v.mag == 0 {
		return true
	}
	span := bits.Len64(v.mag) - bits.TrailingZeros64(v.mag)
	switch k {
	case bytecode.KindF16:
		return v.mag <= 65504 && span <= 11
	case bytecode.KindF32:
		return span <= 24
	case bytecode.KindF64:
		return span <= 53
	}
	return false
}

// describe renders the constant for diagnostics.
func (v constVal) describe() string {
	switch v.class {
	case constInt:
		if v.neg {
			return fmt.Sprintf("-%d", v.mag)
		}
		return strconv.FormatUint(v.mag, 10)
	case constFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case constBool:
		return strconv.FormatBool(v.b)
	case constChar:
		return fmt.Sprintf("'\\u%04X'", v.c)
	case constString:
		return strconv.Quote(v.s)
	}
	return "?"
}
