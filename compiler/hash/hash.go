package hash

import (
	"crypto/sha256"

	"github.com/chazu/tern/compiler"
)

// HashProgram computes the SHA-256 content hash of a parsed program.
//
// The hash is computed over a deterministic serialization of the program's
// normalized AST with declaration-order variable slots. Two programs with
// the same semantics (same statements, ignoring variable names, literal
// radix, comments and formatting) produce the same hash, so the build
// cache survives cosmetic edits.
func HashProgram(prog *compiler.Program) [32]byte {
	hp := NormalizeProgram(prog)
	data := Serialize(hp)
	return sha256.Sum256(data)
}
