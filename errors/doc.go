// Package errors provides structured error types for the oleauto library.
//
// Errors are categorized by Phase (which operation failed) and Kind (error
// category). The Error type carries the operation path, the Go and ABI type
// names involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindInvalidInput).
//		Path("args", "2").
//		GoType("chan int").
//		ABIType("VARIANT").
//		Detail("no variant for Go type").
//		Build()
//
// Resource-contract violations detected before any foreign call form a
// closed set of sentinels, matched by kind regardless of phase:
//
//	if errors.Is(err, errors.ErrNullTerminatorRequired) { ... }
//
// Foreign status codes are not represented here; they travel as
// hresult.HRESULT values.
package errors
