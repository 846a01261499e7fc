// Package spice exposes the engine's operations as typed Go functions.
//
// Each wrapper follows the same shape: validate arguments on the host side,
// allocate every region the call needs in one arena scope, encode inputs,
// invoke the entry point, translate a non-zero status through the failure
// channel, and decode outputs before the scope frees its regions. Calls
// that open engine resources register the returned native handle and hand
// the caller an opaque host handle; calls that consume handles resolve
// them through the registry with kind checking.
//
// A Backend serializes nothing itself. The engine is single-threaded, so
// callers must not invoke wrappers on one Backend concurrently.
package spice
