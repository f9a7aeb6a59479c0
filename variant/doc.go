// Package variant bridges Go values and the VARIANT tagged union.
//
// Value is a closed sum type: every discriminant the bridge understands has
// exactly one Go type, and a Value can only be taken apart with a type
// switch. Raw is the transient 16-byte union in foreign memory; it is the
// only place where a discriminant selects how payload bytes are read.
//
// # Conversions
//
//	raw, _ := variant.FromValue(env, variant.Text("hi"))  // allocates a string handle
//	v, _ := raw.Take()                                     // frees it again, raw is now VT_EMPTY
//	raw.Free()
//
// Take consumes: it resets the discriminant to VT_EMPTY before reading the
// payload, so a later Clear cannot release what the returned Value now owns.
// A Text payload is decoded and its handle freed; the Value keeps only the Go
// string. Object references move into the Value unchanged.
//
// Write and FromValue are pure representation mappers. They copy reference
// pointers without touching counts; Retain and Release adjust counts when a
// caller needs them.
//
// An unrecognised discriminant in Take is a contract violation and panics.
package variant
