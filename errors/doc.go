// Package errors provides structured error types for the tspice bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Validation, encoding, decoding and boundary failures are *Error
// values; failures reported by the engine itself are *EngineError values
// carrying the status code and the engine's short/long/explain/trace fields.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindShapeMismatch).
//		Path("entszs").
//		Detail("row %d: non-null entries must have size >= 1", i).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle("dafcls", 42)
//	err := errors.KindMismatch("ekacli", 7, "direct-access-file", allowed)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
