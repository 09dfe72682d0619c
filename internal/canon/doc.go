// Package canon converts snapshot values into one canonical textual form.
//
// Snapshot comparison is byte equality of serialized values, so the encoding
// must be a pure function of the logical value:
//   - Object keys sorted by UTF-16 code units
//   - Strings NFC normalized, no HTML escaping
//   - Integral numbers written without a fraction, whatever their Go type
//   - Two-space indentation for arrays and objects
//
// Only absent values, numbers, strings, booleans, and structured mappings
// (maps with string keys and slices) can be represented. Anything else is
// rejected with an *UnsupportedError rather than silently truncated.
//
// canon imports nothing internal.
package canon
