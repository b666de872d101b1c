package hash

import (
	"bytes"
	"testing"
)

func TestSerialize_Deterministic(t *testing.T) {
	tree := &HProgram{Statements: []HNode{
		&HLet{Slot: 0, TypeName: "i32", Value: &HIntLiteral{Value: 42}},
		&HPrint{Value: &HBinary{Op: "+", Left: &HVarRef{Slot: 0}, Right: &HIntLiteral{Value: 1}}},
	}}

	first := Serialize(tree)
	second := Serialize(tree)
	if !bytes.Equal(first, second) {
		t.Error("serialization is not deterministic")
	}
}

func TestSerialize_VersionPrefix(t *testing.T) {
	data := Serialize(&HProgram{})
	if len(data) == 0 || data[0] != HashVersion {
		t.Errorf("first byte: got 0x%02X, want 0x%02X", data[0], HashVersion)
	}
}

func TestSerialize_ExactBytes(t *testing.T) {
	// print 1;
	tree := &HProgram{Statements: []HNode{
		&HPrint{Value: &HIntLiteral{Value: 1}},
	}}

	want := []byte{
		0x01,                   // version
		0x0C,                   // program
		0x00, 0x00, 0x00, 0x01, // 1 statement
		0x0A, // print
		0x01, // int literal
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, // value 1
		0x00, 0x00, 0x00, 0x00, // empty suffix
	}

	got := Serialize(tree)
	if !bytes.Equal(got, want) {
		t.Errorf("serialized bytes:\n  got:  %x\n  want: %x", got, want)
	}
}

func TestSerialize_DistinctTrees(t *testing.T) {
	base := &HProgram{Statements: []HNode{
		&HLet{Slot: 0, Value: &HIntLiteral{Value: 7}},
	}}

	variants := map[string]*HProgram{
		"different value": {Statements: []HNode{
			&HLet{Slot: 0, Value: &HIntLiteral{Value: 8}},
		}},
		"different suffix": {Statements: []HNode{
			&HLet{Slot: 0, Value: &HIntLiteral{Value: 7, Suffix: "u8"}},
		}},
		"different annotation": {Statements: []HNode{
			&HLet{Slot: 0, TypeName: "i64", Value: &HIntLiteral{Value: 7}},
		}},
		"different statement kind": {Statements: []HNode{
			&HPrint{Value: &HIntLiteral{Value: 7}},
		}},
		"extra statement": {Statements: []HNode{
			&HLet{Slot: 0, Value: &HIntLiteral{Value: 7}},
			&HPrint{Value: &HVarRef{Slot: 0}},
		}},
	}

	ref := Serialize(base)
	for name, tree := range variants {
		if bytes.Equal(ref, Serialize(tree)) {
			t.Errorf("%s: serialized identically to the base tree", name)
		}
	}
}

func TestSerialize_FloatBitsExact(t *testing.T) {
	pos := Serialize(&HFloatLiteral{Value: 0.0})
	neg := Serialize(&HFloatLiteral{Value: negZero()})
	if bytes.Equal(pos, neg) {
		t.Error("0.0 and -0.0 serialized identically")
	}
}

// negZero builds -0.0 without tripping constant folding.
func negZero() float64 {
	z := 0.0
	return -z
}

func TestSerialize_OperatorStringsDiffer(t *testing.T) {
	add := Serialize(&HBinary{Op: "+", Left: &HIntLiteral{Value: 1}, Right: &HIntLiteral{Value: 2}})
	sub := Serialize(&HBinary{Op: "-", Left: &HIntLiteral{Value: 1}, Right: &HIntLiteral{Value: 2}})
	if bytes.Equal(add, sub) {
		t.Error("+ and - serialized identically")
	}
}
