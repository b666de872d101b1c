package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the script: a summary
// line, a hex dump of the data section, and one line per instruction.
func (s *Script) Disassemble() string {
	return s.DisassembleWithDebug(nil)
}

// DisassembleWithDebug is Disassemble with source positions from a debug
// sidecar annotated onto each instruction line.
func (s *Script) DisassembleWithDebug(dbg *DebugInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "; tern script v%d: %d data bytes, %d instructions\n",
		ScriptVersion, len(s.Data), len(s.Code))

	if len(s.Data) > 0 {
		b.WriteString("\ndata:\n")
		for off := 0; off < len(s.Data); off += 16 {
			end := off + 16
			if end > len(s.Data) {
				end = len(s.Data)
			}
			fmt.Fprintf(&b, "  %04X  % X\n", off, s.Data[off:end])
		}
	}

	b.WriteString("\ncode:\n")
	for i, in := range s.Code {
		fmt.Fprintf(&b, "  %4d  %s", i, in)
		if note := s.annotate(in, dbg, uint32(i)); note != "" {
			fmt.Fprintf(&b, "  ; %s", note)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// annotate returns the comment trailer for one instruction line: the
// referenced constant's bytes or string text, and the source position if
// a debug sidecar is present.
func (s *Script) annotate(in Instruction, dbg *DebugInfo, index uint32) string {
	var parts []string
	switch in.Op {
	case OpPushData:
		end := uint64(in.Addr) + uint64(in.Size)
		if end <= uint64(len(s.Data)) {
			parts = append(parts, fmt.Sprintf("% X", s.Data[in.Addr:end]))
		}
	case OpPushAddr:
		if str, err := StringAt(s.Data, in.Addr); err == nil {
			parts = append(parts, formatString(str))
		}
	}
	if dbg != nil {
		if line, col, ok := dbg.PositionOf(index); ok {
			parts = append(parts, fmt.Sprintf("line %d:%d", line, col))
		}
	}
	return strings.Join(parts, "  ")
}

func (in Instruction) String() string {
	info := GetOpcodeInfo(in.Op)
	switch info.Addr {
	case AddrData:
		return fmt.Sprintf("%-12s data:0x%04X size=%d", info.Name, in.Addr, in.Size)
	case AddrStack:
		return fmt.Sprintf("%-12s stack:0x%04X size=%d", info.Name, in.Addr, in.Size)
	}
	if in.Size > 0 {
		return fmt.Sprintf("%-12s size=%d", info.Name, in.Size)
	}
	return info.Name
}

// formatString quotes s for a listing, truncating long values.
func formatString(s string) string {
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return fmt.Sprintf("%q", s)
}
