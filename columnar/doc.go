// Package columnar implements the shape validation and encoding for bulk
// writes into tabular engine resources.
//
// A bulk write carries four parallel inputs: per-row entry counts, per-row
// null flags, per-row record pointers, and a flattened value array. The
// engine applies such a write without any rollback support, so every shape
// invariant is validated before a single byte is allocated or encoded; a
// partially valid request never reaches the engine.
package columnar
