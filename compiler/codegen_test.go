package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/tern/bytecode"
)

// compileClean compiles input and fails the test on errors. Warnings are
// tolerated.
func compileClean(t *testing.T, input string) *Result {
	t.Helper()
	res, diags := Compile(input, Options{})
	if HasErrors(diags) {
		t.Fatalf("compile errors: %v", diags)
	}
	if res == nil {
		t.Fatal("nil result without errors")
	}
	return res
}

// compileErr compiles input expecting errors and returns the diagnostics.
func compileErr(t *testing.T, input string) []Diagnostic {
	t.Helper()
	res, diags := Compile(input, Options{})
	if !HasErrors(diags) {
		t.Fatalf("Compile(%q) succeeded, want errors", input)
	}
	if res != nil {
		t.Fatalf("Compile(%q) returned a result alongside errors", input)
	}
	return diags
}

func checkCode(t *testing.T, got, want []bytecode.Instruction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("instruction count = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCompileArithmetic(t *testing.T) {
	res := compileClean(t, "let a = 2;\nlet b = 3;\nprint a + b;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpPushData, Addr: 4, Size: 4},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 4},
		{Op: bytecode.OpPushStack, Addr: 4, Size: 4},
		{Op: bytecode.OpAddI, Size: 4},
		{Op: bytecode.OpPrintI, Size: 4},
		{Op: bytecode.OpHalt},
	})
	data := res.Script.Data
	if len(data) != 16 {
		t.Fatalf("data length = %d, want 16", len(data))
	}
	if data[0] != 2 || data[4] != 3 {
		t.Errorf("data = % X, want 2 at offset 0 and 3 at offset 4", data[:8])
	}
}

// The same constant interned twice shares one data-section slot.
func TestCompileConstantDedup(t *testing.T) {
	res := compileClean(t, "print 5 + 5;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpAddI, Size: 4},
		{Op: bytecode.OpPrintI, Size: 4},
		{Op: bytecode.OpHalt},
	})
}

// An annotation drives literal kinds through the whole expression.
func TestCompileAnnotationPropagates(t *testing.T) {
	res := compileClean(t, "let x: i64 = 1 + 2;\nprint x;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 8},
		{Op: bytecode.OpPushData, Addr: 8, Size: 8},
		{Op: bytecode.OpAddI, Size: 8},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 8},
		{Op: bytecode.OpPrintI, Size: 8},
		{Op: bytecode.OpHalt},
	})
}

// An integer literal meeting a float picks up the float kind.
func TestCompileIntFloatUnification(t *testing.T) {
	res := compileClean(t, "print 1 + 2.5;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 8},
		{Op: bytecode.OpPushData, Addr: 8, Size: 8},
		{Op: bytecode.OpAddF, Size: 8},
		{Op: bytecode.OpPrintF, Size: 8},
		{Op: bytecode.OpHalt},
	})
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F} // 1.0
	for i, b := range want {
		if res.Script.Data[i] != b {
			t.Errorf("data[%d] = %02X, want %02X", i, res.Script.Data[i], b)
			break
		}
	}
}

func TestCompileSuffixedNarrowKinds(t *testing.T) {
	res := compileClean(t, "print 7u8 + 3u8;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 1},
		{Op: bytecode.OpPushData, Addr: 1, Size: 1},
		{Op: bytecode.OpAddI, Size: 1},
		{Op: bytecode.OpPrintU, Size: 1},
		{Op: bytecode.OpHalt},
	})
}

// Division and remainder pick the signed or unsigned opcode by kind.
func TestCompileDivisionOpcodes(t *testing.T) {
	tests := []struct {
		input string
		op    bytecode.Opcode
	}{
		{"print 8 / 2;", bytecode.OpDivI},
		{"print 8u32 / 2u32;", bytecode.OpDivU},
		{"print 8 % 3;", bytecode.OpModI},
		{"print 8u8 % 3u8;", bytecode.OpModU},
		{"print 1.0 / 2.0;", bytecode.OpDivF},
	}

	for _, tc := range tests {
		res := compileClean(t, tc.input)
		if got := res.Script.Code[2].Op; got != tc.op {
			t.Errorf("Compile(%q): opcode = %v, want %v", tc.input, got, tc.op)
		}
	}
}

// Minus on a literal folds into the constant; no subtraction is emitted.
func TestCompileNegativeLiteral(t *testing.T) {
	res := compileClean(t, "print -5;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpPrintI, Size: 4},
		{Op: bytecode.OpHalt},
	})
	want := []byte{0xFB, 0xFF, 0xFF, 0xFF}
	for i, b := range want {
		if res.Script.Data[i] != b {
			t.Fatalf("data = % X, want % X", res.Script.Data[:4], want)
		}
	}
}

// Minus on a variable subtracts it from an interned zero.
func TestCompileNegateVariable(t *testing.T) {
	res := compileClean(t, "let x = 5;\nprint -x;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4}, // x = 5
		{Op: bytecode.OpPushData, Addr: 4, Size: 4}, // zero
		{Op: bytecode.OpPushStack, Addr: 0, Size: 4},
		{Op: bytecode.OpSubI, Size: 4},
		{Op: bytecode.OpPrintI, Size: 4},
		{Op: bytecode.OpHalt},
	})
}

// A string variable's stack slot holds the 4-byte data address.
func TestCompileStringVariable(t *testing.T) {
	res := compileClean(t, "let s = \"hi\";\nprint s;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushAddr, Addr: 0, Size: 4},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 4},
		{Op: bytecode.OpPrintS, Size: 4},
		{Op: bytecode.OpHalt},
	})
	want := []byte{0x02, 0x00, 0x00, 0x00, 0x68, 0x00, 0x69, 0x00}
	for i, b := range want {
		if res.Script.Data[i] != b {
			t.Fatalf("data = % X, want % X", res.Script.Data[:8], want)
		}
	}
}

func TestCompileBoolAndChar(t *testing.T) {
	res := compileClean(t, "print true;\nprint 'A';")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 1},
		{Op: bytecode.OpPrintB, Size: 1},
		{Op: bytecode.OpPushData, Addr: 1, Size: 2},
		{Op: bytecode.OpPrintC, Size: 2},
		{Op: bytecode.OpHalt},
	})
	if res.Script.Data[0] != 1 {
		t.Errorf("bool encoding = %d, want 1", res.Script.Data[0])
	}
	if res.Script.Data[1] != 0x41 || res.Script.Data[2] != 0x00 {
		t.Errorf("char encoding = % X, want 41 00", res.Script.Data[1:3])
	}
}

// Mixed-width variables keep their stack offsets across statements.
func TestCompileMixedWidthVariables(t *testing.T) {
	res := compileClean(t, "let a: i64 = 1;\nlet b: u16 = 2;\nprint a;\nprint b;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 8},
		{Op: bytecode.OpPushData, Addr: 8, Size: 2},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 8},
		{Op: bytecode.OpPrintI, Size: 8},
		{Op: bytecode.OpPushStack, Addr: 8, Size: 2},
		{Op: bytecode.OpPrintU, Size: 2},
		{Op: bytecode.OpHalt},
	})
}

// An expression statement drops its value to keep the stack balanced.
func TestCompileExprStatementDrops(t *testing.T) {
	res := compileClean(t, "1 + 2;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpPushData, Addr: 4, Size: 4},
		{Op: bytecode.OpAddI, Size: 4},
		{Op: bytecode.OpDrop, Size: 4},
		{Op: bytecode.OpHalt},
	})
}

func TestCompileF16(t *testing.T) {
	res := compileClean(t, "let h: f16 = 1.5;\nprint h;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 2},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 2},
		{Op: bytecode.OpPrintF, Size: 2},
		{Op: bytecode.OpHalt},
	})
	if res.Script.Data[0] != 0x00 || res.Script.Data[1] != 0x3E {
		t.Errorf("f16 encoding = % X, want 00 3E", res.Script.Data[:2])
	}
}

// A float-kinded variable pulls integer literals in its expressions up to
// its kind, and freed holes are reused for the new constants.
func TestCompileAdaptationInBinary(t *testing.T) {
	res := compileClean(t, "let r: f32 = 10;\nprint r * 2;")
	checkCode(t, res.Script.Code, []bytecode.Instruction{
		{Op: bytecode.OpPushData, Addr: 0, Size: 4},
		{Op: bytecode.OpPushStack, Addr: 0, Size: 4},
		{Op: bytecode.OpPushData, Addr: 4, Size: 4},
		{Op: bytecode.OpMulF, Size: 4},
		{Op: bytecode.OpPrintF, Size: 4},
		{Op: bytecode.OpHalt},
	})
}

func TestCompileLargeUnsuffixedLiterals(t *testing.T) {
	// Wider than i32: defaults widen to i64, then u64.
	res := compileClean(t, "print 5000000000;")
	if res.Script.Code[1].Op != bytecode.OpPrintI || res.Script.Code[1].Size != 8 {
		t.Errorf("5000000000 lowered as %v, want PRINT_I size 8", res.Script.Code[1])
	}

	res = compileClean(t, "print 18446744073709551615;")
	if res.Script.Code[1].Op != bytecode.OpPrintU || res.Script.Code[1].Size != 8 {
		t.Errorf("max u64 lowered as %v, want PRINT_U size 8", res.Script.Code[1])
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{"let x: u8 = 300;", "constant 300 does not fit u8"},
		{"let x: u8 = -1;", "constant -1 does not fit u8"},
		{"let x: i8 = 200;", "constant 200 does not fit i8"},
		{"let x: f32 = 16777217;", "constant 16777217 does not fit f32"},
		{"let x: i32 = 1.5;", "constant 1.5 does not fit i32"},
		{"print 1.5 % 2.0;", "requires integer operands"},
		{"print true + false;", "requires numeric operands"},
		{"print -true;", "requires a numeric operand"},
		{"let s = \"x\"; print s + s;", "requires numeric operands"},
		{"let a = 1; let b = 2.5; print a + b;", "mismatched kinds i32 and f64"},
		{"print 1u8 + 2u16;", "mismatched kinds u8 and u16"},
		{"let a = 1; let b: i64 = a;", "mismatched kinds i32 and i64"},
		{"let neg = -9223372036854775809;", "out of range"},
	}

	for _, tc := range tests {
		diags := compileErr(t, tc.input)
		found := false
		for _, d := range diags {
			if strings.Contains(d.Message, tc.wantMsg) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Compile(%q): diagnostics %v do not mention %q", tc.input, diags, tc.wantMsg)
		}
	}
}

// An unused variable warns but still compiles.
func TestCompileWarningsStillSucceed(t *testing.T) {
	res, diags := Compile("let x = 1;", Options{})
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if res == nil {
		t.Fatal("nil result")
	}
	if len(diags) != 1 || diags[0].Severity != SeverityWarning {
		t.Errorf("diagnostics = %v, want one unused warning", diags)
	}
}

func TestCompileDebugInfo(t *testing.T) {
	res, diags := Compile("let a = 1;\nprint a;", Options{Source: "test.tern", Debug: true})
	if HasErrors(diags) {
		t.Fatalf("compile errors: %v", diags)
	}
	d := res.Debug
	if d == nil {
		t.Fatal("no debug info recorded")
	}
	if d.Source != "test.tern" {
		t.Errorf("source = %q, want %q", d.Source, "test.tern")
	}
	wantLines := []bytecode.LineEntry{
		{Index: 0, Line: 1, Column: 1},
		{Index: 1, Line: 2, Column: 1},
	}
	if len(d.Lines) != len(wantLines) {
		t.Fatalf("line entries = %d, want %d", len(d.Lines), len(wantLines))
	}
	for i, w := range wantLines {
		if d.Lines[i] != w {
			t.Errorf("line[%d] = %v, want %v", i, d.Lines[i], w)
		}
	}
	if len(d.Vars) != 1 || d.Vars[0].Name != "a" || d.Vars[0].Offset != 0 || d.Vars[0].Kind != bytecode.KindI32 {
		t.Errorf("vars = %v, want a at offset 0 with kind i32", d.Vars)
	}

	// The trailing HALT maps back to the print statement.
	if line, _, ok := d.PositionOf(2); !ok || line != 2 {
		t.Errorf("PositionOf(2) = %d, %v; want line 2", line, ok)
	}
}

func TestCompileNoDebugByDefault(t *testing.T) {
	res := compileClean(t, "print 1;")
	if res.Debug != nil {
		t.Error("debug info recorded without Options.Debug")
	}
}

func TestCompileVarSymbols(t *testing.T) {
	res := compileClean(t, "let count: i64 = 0;\nprint count;")
	if len(res.Vars) != 1 {
		t.Fatalf("vars = %d, want 1", len(res.Vars))
	}
	v := res.Vars[0]
	if v.Name != "count" || v.Kind != bytecode.KindI64 {
		t.Errorf("var = %s %s, want count i64", v.Name, v.Kind)
	}
	if v.Decl.Start.Column != 5 || v.Decl.End.Column != 10 {
		t.Errorf("decl span columns = %d..%d, want 5..10", v.Decl.Start.Column, v.Decl.End.Column)
	}
}

// Compiling the same source twice yields identical scripts.
func TestCompileDeterministic(t *testing.T) {
	input := "let a = 1;\nlet s = \"text\";\nprint a + 2;\nprint s;"
	first := compileClean(t, input)
	second := compileClean(t, input)

	b1, err := first.Script.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b2, err := second.Script.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if string(b1) != string(b2) {
		t.Error("identical sources compiled to different scripts")
	}
}
