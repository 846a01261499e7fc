package registry

import (
	"math"
	"sync"

	"github.com/rybosome/tspice-sub002/errors"
)

// Handle is an opaque, host-visible identifier for an engine-owned resource.
// Handles are positive, monotonically increasing, and never reused: once a
// handle is closed its id is permanently retired, so a stale reference can
// never silently alias a later resource.
type Handle int64

// Kind tags the engine resource a handle refers to.
type Kind string

const (
	KindEventTable          Kind = "event-table"
	KindDirectAccessFile    Kind = "direct-access-file"
	KindDirectAccessSegment Kind = "direct-access-segment"
	KindDirectLinkedArray   Kind = "direct-linked-array"
)

// Entry is the registry's record for one live resource.
type Entry struct {
	Kind   Kind
	Native int32
}

// Registry maps host-visible handles to native engine handles with kind
// tagging and close-once semantics. It is the only cross-call shared mutable
// state this layer owns.
type Registry struct {
	entries map[Handle]Entry
	next    Handle
	mu      sync.RWMutex
}

// New creates an empty registry. Ids start at 1.
func New() *Registry {
	return &Registry{
		entries: make(map[Handle]Entry),
		next:    1,
	}
}

// Register records a native handle already confirmed valid by a successful
// engine call and returns a fresh host-visible handle for it. The native
// handle must fit a signed 32-bit integer, the only integer width the engine
// ABI carries.
func (r *Registry) Register(kind Kind, native int64) (Handle, error) {
	if native < math.MinInt32 || native > math.MaxInt32 {
		return 0, errors.InvalidInput(errors.PhaseValidate,
			"register %s: native handle %d outside 32-bit range", kind, native)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next == math.MaxInt64 {
		// Practically unreachable; treated as a fatal configuration error
		// rather than wrapping around into previously issued ids.
		return 0, errors.Exhausted("handle id space")
	}

	h := r.next
	r.next++
	r.entries[h] = Entry{Kind: kind, Native: int32(native)}
	return h, nil
}

// Lookup returns the entry for h if it is live and its kind is in allowed.
// A dead or never-issued id yields an invalid_handle error; a live id of the
// wrong kind yields a kind_mismatch error naming the actual kind. context
// names the operation for error messages.
func (r *Registry) Lookup(h Handle, allowed []Kind, context string) (Entry, error) {
	if h <= 0 {
		return Entry{}, errors.InvalidHandle(context, int64(h))
	}

	r.mu.RLock()
	e, ok := r.entries[h]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, errors.InvalidHandle(context, int64(h))
	}
	if !kindAllowed(e.Kind, allowed) {
		return Entry{}, errors.KindMismatch(context, int64(h), string(e.Kind), kindNames(allowed))
	}
	return e, nil
}

// Close looks up h with the same kind checking as Lookup, invokes closeNative
// with the entry, and removes the entry only after closeNative returns nil.
// If closeNative fails the entry stays registered: the engine still considers
// the resource open, and forgetting it would leak it permanently.
func (r *Registry) Close(h Handle, allowed []Kind, closeNative func(Entry) error, context string) error {
	e, err := r.Lookup(h, allowed, context)
	if err != nil {
		return err
	}

	if err := closeNative(e); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.entries, h)
	r.mu.Unlock()
	return nil
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Each iterates over live entries until fn returns false.
func (r *Registry) Each(fn func(Handle, Entry) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for h, e := range r.entries {
		if !fn(h, e) {
			break
		}
	}
}

func kindAllowed(k Kind, allowed []Kind) bool {
	for _, a := range allowed {
		if k == a {
			return true
		}
	}
	return false
}

func kindNames(kinds []Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
