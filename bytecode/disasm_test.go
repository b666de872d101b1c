package bytecode

import (
	"strings"
	"testing"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Instruction{OpPushData, 0, 4}, "PUSH_DATA    data:0x0000 size=4"},
		{Instruction{OpPushStack, 8, 2}, "PUSH_STACK   stack:0x0008 size=2"},
		{Instruction{OpAddI, 0, 8}, "ADD_I        size=8"},
		{Instruction{OpHalt, 0, 0}, "HALT"},
		{Instruction{Opcode(0xEE), 0, 0}, "UNKNOWN_0xEE"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDisassembleListing(t *testing.T) {
	sc := buildTestScript()
	sc.Code = append(sc.Code, Instruction{Op: OpHalt})
	listing := sc.Disassemble()

	for _, want := range []string{
		"data:", "code:",
		"PUSH_DATA", "ADD_I", "PRINT_I", "PUSH_ADDR", "HALT",
		`"hi"`, // string annotation on PUSH_ADDR
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
	if !strings.Contains(listing, "0000  ") {
		t.Errorf("listing missing data dump row:\n%s", listing)
	}
}

func TestDisassembleWithDebug(t *testing.T) {
	sc := buildTestScript()
	dbg := &DebugInfo{
		Source: "demo.tern",
		Lines:  []LineEntry{{Index: 0, Line: 1, Column: 1}, {Index: 3, Line: 2, Column: 5}},
	}
	listing := sc.DisassembleWithDebug(dbg)
	if !strings.Contains(listing, "line 1:1") || !strings.Contains(listing, "line 2:5") {
		t.Errorf("listing missing source positions:\n%s", listing)
	}
}

func TestDisassembleEmpty(t *testing.T) {
	listing := (&Script{}).Disassemble()
	if !strings.Contains(listing, "0 data bytes, 0 instructions") {
		t.Errorf("unexpected empty listing:\n%s", listing)
	}
	if strings.Contains(listing, "data:\n") {
		t.Errorf("empty script should have no data dump:\n%s", listing)
	}
}

func TestFormatStringTruncates(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := formatString(long)
	if !strings.Contains(got, "...") {
		t.Errorf("formatString did not truncate: %q", got)
	}
	if len(got) > 48 {
		t.Errorf("formatString result too long: %d chars", len(got))
	}
}
