package bytecode

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzDeserialize feeds arbitrary bytes to the deserializer: it must never
// panic, every rejection must wrap ErrMalformedScript, and every accepted
// input must reserialize to the exact bytes it was parsed from.
func FuzzDeserialize(f *testing.F) {
	full, err := buildTestScript().Serialize()
	if err != nil {
		f.Fatalf("Serialize: %v", err)
	}
	f.Add(full)
	f.Add(full[:len(full)-3])
	f.Add([]byte{})
	f.Add([]byte("TNSC"))
	f.Add(append(bytes.Clone(full), 0x00))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Deserialize(data)
		if err != nil {
			if !errors.Is(err, ErrMalformedScript) {
				t.Fatalf("error does not wrap ErrMalformedScript: %v", err)
			}
			if s != nil {
				t.Fatal("partial script returned alongside error")
			}
			return
		}
		out, err := s.Serialize()
		if err != nil {
			t.Fatalf("reserialize: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("reserialization differs from accepted input:\n  in  % X\n  out % X", data, out)
		}
	})
}
