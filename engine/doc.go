// Package engine hosts the tspice numerical engine inside a wazero runtime.
//
// The engine is an emscripten-built core WebAssembly module. Its only
// interface is a closed table of exported C ABI entry points (names.go):
// each takes 32-bit pointers/offsets into linear memory plus an error-buffer
// pointer and capacity, and returns a status code where zero means success.
// The module also exports malloc and free, which back the host-side
// allocator adapter.
//
// An Instance is NOT safe for concurrent use. The engine holds process-wide
// failure state and open resource tables; callers must strictly serialize
// all calls against one instance. See the root package documentation.
package engine
