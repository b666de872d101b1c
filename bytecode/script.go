package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ScriptMagic identifies a serialized tern script.
var ScriptMagic = []byte{'T', 'N', 'S', 'C'}

// ScriptVersion is the current script container version.
const ScriptVersion uint16 = 1

// scriptHeaderSize is magic + version + data length.
const scriptHeaderSize = 4 + 2 + 4

// ErrMalformedScript is wrapped by every error Deserialize returns for a
// structurally invalid input. Callers distinguish "bad file" from I/O
// errors with errors.Is.
var ErrMalformedScript = errors.New("bytecode: malformed script")

// Script is a compiled program: the finalized constant data section and
// the finalized instruction sequence. A script is immutable once built;
// nothing in this package modifies one after construction.
type Script struct {
	Data []byte
	Code []Instruction
}

// Serialize renders the script in its binary container format:
//
//	magic "TNSC"        4 bytes
//	version             u16 little-endian
//	data length         u32 little-endian, always a multiple of 16
//	data section        raw bytes
//	instruction count   u32 little-endian
//	instructions        count records of (opcode u8, addr u32 LE, size u8)
//
// Serializing the same script twice produces identical bytes.
func (s *Script) Serialize() ([]byte, error) {
	buf := make([]byte, 0, scriptHeaderSize+len(s.Data)+4+len(s.Code)*EncodedInstructionSize)
	buf = append(buf, ScriptMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, ScriptVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Data)))
	buf = append(buf, s.Data...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Code)))
	for _, in := range s.Code {
		buf = append(buf, byte(in.Op))
		buf = binary.LittleEndian.AppendUint32(buf, in.Addr)
		buf = append(buf, in.Size)
	}
	return buf, nil
}

// Deserialize reconstructs a script from its container bytes. Any
// structural inconsistency fails hard with an error wrapping
// ErrMalformedScript; a partially decoded script is never returned.
func Deserialize(data []byte) (*Script, error) {
	if len(data) < scriptHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header",
			ErrMalformedScript, len(data), scriptHeaderSize)
	}
	if !bytes.Equal(data[0:4], ScriptMagic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformedScript, data[0:4])
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != ScriptVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (this toolchain reads version %d)",
			ErrMalformedScript, version, ScriptVersion)
	}
	dataLen := binary.LittleEndian.Uint32(data[6:10])
	if dataLen%dataAlign != 0 {
		return nil, fmt.Errorf("%w: data section length %d is not a multiple of %d",
			ErrMalformedScript, dataLen, dataAlign)
	}
	pos := uint64(scriptHeaderSize)
	if pos+uint64(dataLen) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: data section truncated: header claims %d bytes, %d remain",
			ErrMalformedScript, dataLen, uint64(len(data))-pos)
	}
	section := make([]byte, dataLen)
	copy(section, data[pos:pos+uint64(dataLen)])
	pos += uint64(dataLen)

	if pos+4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: missing instruction count", ErrMalformedScript)
	}
	count := binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	rem := uint64(len(data)) - pos
	want := uint64(count) * EncodedInstructionSize
	if rem < want {
		return nil, fmt.Errorf("%w: instruction records truncated: %d instructions need %d bytes, %d remain",
			ErrMalformedScript, count, want, rem)
	}
	if rem > want {
		return nil, fmt.Errorf("%w: %d trailing bytes after the last instruction",
			ErrMalformedScript, rem-want)
	}

	code := make([]Instruction, count)
	for i := uint32(0); i < count; i++ {
		rec := data[pos : pos+EncodedInstructionSize]
		in := Instruction{
			Op:   Opcode(rec[0]),
			Addr: binary.LittleEndian.Uint32(rec[1:5]),
			Size: rec[5],
		}
		if err := checkInstruction(in, i, dataLen); err != nil {
			return nil, err
		}
		code[i] = in
		pos += EncodedInstructionSize
	}
	return &Script{Data: section, Code: code}, nil
}

// checkInstruction rejects records that cannot have come from the
// compiler: unknown opcodes, illegal operand sizes, data references
// outside the data section, and nonzero addresses on opcodes that take
// none.
func checkInstruction(in Instruction, index, dataLen uint32) error {
	info, ok := opcodeInfoTable[in.Op]
	if !ok {
		return fmt.Errorf("%w: unknown opcode 0x%02X in record %d",
			ErrMalformedScript, uint8(in.Op), index)
	}
	if !in.Op.SizeLegal(in.Size) {
		return fmt.Errorf("%w: illegal size %d for %s in record %d",
			ErrMalformedScript, in.Size, info.Name, index)
	}
	switch info.Addr {
	case AddrNone:
		if in.Addr != 0 {
			return fmt.Errorf("%w: %s in record %d carries address 0x%04X but takes none",
				ErrMalformedScript, info.Name, index, in.Addr)
		}
	case AddrData:
		if uint64(in.Addr)+uint64(in.Size) > uint64(dataLen) {
			return fmt.Errorf("%w: %s in record %d reads [0x%04X,0x%04X) outside the %d-byte data section",
				ErrMalformedScript, info.Name, index, in.Addr, uint64(in.Addr)+uint64(in.Size), dataLen)
		}
	}
	return nil
}
