// Package codec encodes and decodes scalars, vectors and fixed-width C
// strings between host values and the engine's linear memory.
//
// The engine ABI carries exactly two scalar widths: little-endian 32-bit
// integers and 64-bit IEEE 754 doubles. Offsets must be aligned to the
// element size; all reads are bounds-checked against the live memory view
// and fail fast rather than returning garbage.
//
// Strings cross the boundary as NUL-terminated byte sequences, either singly
// or as fixed-stride arrays. Truncation to a byte budget is UTF-8 aware: a
// multi-byte codepoint that would straddle the budget is dropped whole,
// never split.
package codec
