// Package bytecode implements the compilation backend of the tern
// toolchain: the constant pool, the instruction stream, and the compiled
// script container with its binary serialization.
//
// The bytecode format is designed for:
//   - Deterministic output (interning the same constants in the same order
//     always produces byte-identical scripts)
//   - Compact representation (6-byte fixed instruction records, fully
//     deduplicated constants)
//   - Easy serialization (scripts round-trip losslessly through the "TNSC"
//     container and can be stored in SQLite or shipped between processes)
//
// # Architecture Overview
//
//   - Pool: assigns aligned, deduplicated data-section offsets to constant
//     values of every primitive kind, recycling alignment padding ("holes")
//     for later small allocations, and renders the final data-section
//     buffer.
//
//   - Stream: accumulates instructions in emission order while tracking the
//     abstract evaluation-stack depth in bytes, so the lowering pipeline
//     can address stack-resident temporaries without knowing the
//     interpreter's stack representation.
//
//   - Script: the immutable pairing of finalized data-section bytes and the
//     finalized instruction sequence. Serialize/Deserialize convert it
//     to/from the little-endian "TNSC" container; a corrupt container is
//     always a hard ErrMalformedScript failure, never a partial script.
//
//   - DebugInfo: optional source-level metadata (line table, variable
//     locations) kept in a CBOR sidecar so the script container itself
//     stays fixed-format.
//
// # Addressing Model
//
// Two memory spaces exist: the data section (constants) and the evaluation
// stack (temporaries and locals). An Address carries its Location alongside
// the offset; addresses from different locations are never interchangeable,
// and the emit helpers panic when handed an address from the wrong space.
// Stack offsets are byte offsets from the stack base and are computed at
// compile time from the tracked depth.
package bytecode
