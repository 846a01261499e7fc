// Package registry implements the tagged handle table for engine-owned
// resources.
//
// The engine identifies open files and tables by small native integers that
// carry no type information and are meaningful only to the engine. The
// registry wraps every native handle in an entry carrying an explicit kind
// tag, and hands callers an opaque, monotonically increasing id instead.
// Kind checking at lookup time is what prevents, for example, passing an
// event-table handle to an operation that only accepts direct-access files.
//
// Ids are never reused. Closing a handle retires its id permanently, so a
// caller holding a stale handle gets an invalid_handle error rather than
// silently touching an unrelated resource registered later.
package registry
