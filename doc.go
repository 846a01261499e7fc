// Package tspice provides a Go host binding layer for the tspice numerical
// engine: a sandboxed WebAssembly module containing a compiled spacecraft and
// planetary geometry toolkit, exposing a flat linear-memory buffer and a fixed
// table of exported C ABI entry points.
//
// The engine cannot accept native pointers, structs, or variable-length
// records; every call is serialized into byte layouts it understands, and
// every engine-owned resource (open kernel files, event-kernel tables,
// direct-access-file cursors) is tracked by an opaque handle so callers never
// hold a raw engine address.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	tspice-sub002/
//	├── registry/        Tagged handle table for engine-owned resources
//	├── arena/           Scoped per-call allocation in linear memory
//	├── codec/           Binary and fixed-width string encoding/decoding
//	├── columnar/        Bulk-write shape validation and encoding
//	├── engine/          wazero integration and engine failure translation
//	├── spice/           One typed wrapper per engine operation
//	├── errors/          Structured error types
//	└── cmd/spicerun/    CLI and interactive operation console
//
// The root package holds only the Memory and Allocator interfaces shared by
// the layers above.
//
// # Quick Start
//
// Load the engine module and furnish a kernel:
//
//	eng, err := engine.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	mod, err := eng.Load(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	backend := spice.New(inst)
//	if err := backend.Furnsh(ctx, "/kernels/de440.bsp"); err != nil {
//	    log.Fatal(err)
//	}
//	et, err := backend.Str2ET(ctx, "2026 AUG 31 12:00:00 TDB")
//
// # Concurrency Model
//
// The engine module is single-threaded and stateful: it holds global mutable
// state for its last-failure status and for open resource tables. All calls
// through this layer are synchronous and MUST be strictly serialized against a
// given instance. Two logically concurrent calls into the same instance are a
// race on the engine's global failure state. The layer does not lock the call
// path; single-threaded call discipline is a hard caller contract.
//
// # Memory Model
//
// Linear memory can only grow, never shrink. Every call must therefore leave
// the engine heap exactly as it found it: all scratch regions for a call are
// acquired and released through the arena package, which guarantees net-zero
// outstanding allocations on every exit path.
package tspice
