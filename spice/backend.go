package spice

import (
	"context"

	"go.uber.org/zap"

	"github.com/rybosome/tspice-sub002/arena"
	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
	"github.com/rybosome/tspice-sub002/registry"
)

// outTextBytes is the capacity of text output buffers (version strings,
// formatted times, diagnostic messages).
const outTextBytes = 2048

// Backend exposes the engine's operations as typed Go functions. It owns
// the handle registry and the allocation arena for its session.
//
// Backend inherits the session's threading contract: callers must serialize
// all calls against one Backend.
type Backend struct {
	session engine.Session
	reg     *registry.Registry
	ar      *arena.Arena
	log     *zap.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend's logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// New creates a Backend over a live engine session.
func New(s engine.Session, opts ...Option) *Backend {
	b := &Backend{
		session: s,
		reg:     registry.New(),
		ar:      arena.New(s.Allocator()),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry exposes the backend's handle registry for introspection.
func (b *Backend) Registry() *registry.Registry {
	return b.reg
}

// Handles reports the number of live handles.
func (b *Backend) Handles() int {
	return b.reg.Len()
}

// withErr appends the per-call error buffer to a region size list. Every
// wrapper allocates its error buffer as the last region of its batch.
func withErr(sizes ...uint32) []uint32 {
	return append(sizes, engine.ErrBufBytes)
}

// call invokes an entry point with the error buffer pair appended to args
// and translates a non-zero status through the failure channel. errPtr must
// be the last region of the calling scope's batch.
func (b *Backend) call(ctx context.Context, name string, errPtr uint32, args ...uint64) error {
	args = append(args, uint64(errPtr), uint64(engine.ErrBufBytes))
	status, err := b.session.Call(ctx, name, args...)
	if err != nil {
		return err
	}
	if status != 0 {
		ee := engine.CaptureFailure(ctx, b.session, b.ar, status, errPtr)
		b.log.Debug("engine call failed",
			zap.String("op", name),
			zap.Int32("status", status),
			zap.String("short", ee.Short))
		return ee
	}
	return nil
}

// register records a native handle returned by a successful open call.
func (b *Backend) register(kind registry.Kind, native int32) (registry.Handle, error) {
	h, err := b.reg.Register(kind, int64(native))
	if err != nil {
		return 0, err
	}
	b.log.Debug("registered handle",
		zap.Int64("handle", int64(h)),
		zap.String("kind", string(kind)),
		zap.Int32("native", native))
	return h, nil
}

// cstrSize is the region size for a NUL-terminated copy of s. An empty
// string still needs the codec's two-byte minimum.
func cstrSize(s string) (uint32, error) {
	n := uint64(len(s)) + 1
	if n < codec.MinStride {
		n = codec.MinStride
	}
	if n > arena.MaxCallBytes {
		return 0, errors.InvalidInput(errors.PhaseValidate, "string argument of %d bytes exceeds call limit", len(s))
	}
	return uint32(n), nil
}

// regionSize computes a count*elem region size in 64-bit space and rejects
// totals beyond the arena ceiling before anything is allocated. 32-bit
// arithmetic here would wrap for large-but-valid counts and silently
// undersize the region the engine writes into.
func regionSize(count, elem uint64) (uint32, error) {
	total := count * elem
	if total > arena.MaxCallBytes {
		return 0, errors.New(errors.PhaseValidate, errors.KindAllocation).
			Detail("region of %d elements of %d bytes exceeds call limit %d",
				count, elem, uint64(arena.MaxCallBytes)).
			Build()
	}
	return uint32(total), nil
}
