// Package bstr implements length-prefixed UTF-16 string handles in foreign
// memory and an owning wrapper that frees them.
//
// # Layout
//
// A handle points at the first code unit of a block laid out as
//
//	[u32 length in code units][UTF-16LE units...][0x0000]
//
// The length lives four bytes before the handle. The terminator is always
// written but is not counted, and the data may contain embedded NUL units.
// The null handle means "no string": StringLen reports 0 for it and
// FreeString ignores it.
//
// # Primitives
//
// Sys exposes the six primitives over an oleauto.Heap:
//
//	AllocString(src)          length = index of the first NUL in src
//	AllocStringLen(src)       length = len(src), NULs kept
//	ReAllocString(h, src)     like AllocString, replaces h
//	ReAllocStringLen(h, src)  like AllocStringLen, replaces h
//	StringLen(h)
//	FreeString(h)
//
// Preconditions are checked before memory is touched. Reallocation refuses a
// null handle and a source that overlaps the handle's block, counting the
// length prefix and the terminator as part of the block. Only sources that
// live in foreign memory (see At) can overlap.
//
// # Ownership
//
// Raw handles carry no ownership tracking. String owns exactly one handle and
// frees it once; Own adopts a raw handle and Detach gives it back.
package bstr
