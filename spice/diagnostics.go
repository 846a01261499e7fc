package spice

import (
	"context"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
)

// Failed reports whether the engine's failure flag is set. The wrappers
// clear the flag themselves after translating a failure, so a true result
// here means something bypassed the error channel.
func (b *Backend) Failed(ctx context.Context) (bool, error) {
	var failed bool
	err := b.ar.WithAllocs(withErr(codec.Int32Bytes), func(ptrs []uint32) error {
		if err := b.call(ctx, engine.FnFailed, ptrs[1], uint64(ptrs[0])); err != nil {
			return err
		}
		f, err := codec.ReadBool(b.session.Memory(), ptrs[0])
		if err != nil {
			return err
		}
		failed = f
		return nil
	})
	return failed, err
}

// Reset clears the engine's failure state.
func (b *Backend) Reset(ctx context.Context) error {
	return b.ar.WithAllocs(withErr(), func(ptrs []uint32) error {
		return b.call(ctx, engine.FnReset, ptrs[0])
	})
}

// GetMessage returns the engine's current error message of the requested
// variant ("SHORT", "LONG" or "EXPLAIN").
func (b *Backend) GetMessage(ctx context.Context, which string) (string, error) {
	if which == "" {
		return "", errors.InvalidInput(errors.PhaseValidate, "message variant must not be empty")
	}
	whichSize, err := cstrSize(which)
	if err != nil {
		return "", err
	}
	var msg string
	err = b.ar.WithAllocs(withErr(whichSize, outTextBytes), func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], whichSize, which); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnGetMsg, ptrs[2],
			uint64(ptrs[0]), uint64(ptrs[1]), uint64(outTextBytes)); err != nil {
			return err
		}
		m, err := codec.ReadCString(mem, ptrs[1], outTextBytes)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	return msg, err
}
