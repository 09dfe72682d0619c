// Package snapshot implements file-backed snapshot assertions.
//
// A snapshot is a previously accepted serialization of a value, stored under
// a key derived from the description path of the assertion site. Each test
// file owns at most one store, kept beside it:
//
//	<test-file-dir>/.snapshots/<test-file-name>.snap
//
// A Session runs in one of two modes, chosen once per run:
//   - ModeVerify compares values against the store. A missing key fails.
//   - ModeUpdate records values and always passes. Flush then rewrites the
//     store so its keys are exactly the sites exercised during the run.
//
// # Store Format
//
// Records are length prefixed, so values never need escaping:
//
//	# specrun snapshot v1
//	--- 14 14
//	math > adds #1
//	"Success  : 1"
//
// The header line gives the byte lengths of the key and value. The writer
// appends a newline after each value and the reader strips exactly that one.
package snapshot
