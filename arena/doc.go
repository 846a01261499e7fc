// Package arena provides scoped allocation in the engine's linear memory.
//
// Linear memory is a single shared, growable-but-finite resource with no
// automatic reclamation across the sandbox boundary. Every call must leave it
// exactly as it found it, or a long-running process exhausts memory. The
// arena's acquire-all/guaranteed-release-all scopes are the mechanism that
// gives that guarantee in the presence of errors raised mid-call: codec
// validation failures, engine failures and decode failures all unwind
// through the same deferred release.
//
// Allocations are scoped strictly to one call's dynamic extent and are never
// retained across calls.
package arena
