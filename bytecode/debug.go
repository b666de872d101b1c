package bytecode

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is the canonical encoding used for debug sidecars, so the
// same DebugInfo always marshals to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR encoding mode: %v", err))
	}
	cborEncMode = em
}

// DebugInfo is the optional source-level metadata for a compiled script.
// It travels in a sidecar file next to the script so the script container
// itself stays fixed-format; a script with no sidecar is fully executable,
// just anonymous.
type DebugInfo struct {
	// Source is the path of the compiled source file.
	Source string `cbor:"source"`
	// Lines maps instruction indices to source positions, ordered by
	// ascending Index. An instruction with no entry of its own belongs to
	// the nearest entry at or before it.
	Lines []LineEntry `cbor:"lines"`
	// Vars records where each named variable lives on the evaluation
	// stack, in declaration order.
	Vars []VarEntry `cbor:"vars"`
}

// LineEntry maps the instruction at Index to the source position its
// statement started at.
type LineEntry struct {
	Index  uint32 `cbor:"index"`
	Line   uint32 `cbor:"line"`
	Column uint32 `cbor:"column"`
}

// VarEntry records a variable's name, its byte offset from the evaluation
// stack base, and its kind.
type VarEntry struct {
	Name   string `cbor:"name"`
	Offset uint32 `cbor:"offset"`
	Kind   Kind   `cbor:"kind"`
}

// Marshal renders the debug info in canonical CBOR.
func (d *DebugInfo) Marshal() ([]byte, error) {
	out, err := cborEncMode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal debug info: %w", err)
	}
	return out, nil
}

// UnmarshalDebugInfo decodes a debug sidecar.
func UnmarshalDebugInfo(data []byte) (*DebugInfo, error) {
	var d DebugInfo
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal debug info: %w", err)
	}
	return &d, nil
}

// PositionOf returns the source position of the instruction at index: the
// line entry at or nearest before it. ok is false when index precedes
// every entry or the table is empty.
func (d *DebugInfo) PositionOf(index uint32) (line, col uint32, ok bool) {
	i := sort.Search(len(d.Lines), func(i int) bool {
		return d.Lines[i].Index > index
	})
	if i == 0 {
		return 0, 0, false
	}
	e := d.Lines[i-1]
	return e.Line, e.Column, true
}
