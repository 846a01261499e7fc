package spice

import (
	"context"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
)

// ToolkitVersion returns the engine's toolkit version string.
func (b *Backend) ToolkitVersion(ctx context.Context) (string, error) {
	var version string
	err := b.ar.WithAllocs(withErr(outTextBytes), func(ptrs []uint32) error {
		out, errBuf := ptrs[0], ptrs[1]
		if err := b.call(ctx, engine.FnTkVersion, errBuf,
			uint64(out), uint64(outTextBytes)); err != nil {
			return err
		}
		v, err := codec.ReadCString(b.session.Memory(), out, outTextBytes)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	return version, err
}

// Furnsh loads the kernel file at path into the engine's kernel pool.
func (b *Backend) Furnsh(ctx context.Context, path string) error {
	if path == "" {
		return errors.InvalidInput(errors.PhaseValidate, "path must not be empty")
	}
	pathSize, err := cstrSize(path)
	if err != nil {
		return err
	}
	return b.ar.WithAllocs(withErr(pathSize), func(ptrs []uint32) error {
		if err := codec.WriteCString(b.session.Memory(), ptrs[0], pathSize, path); err != nil {
			return err
		}
		return b.call(ctx, engine.FnFurnsh, ptrs[1], uint64(ptrs[0]))
	})
}

// Unload removes a previously furnished kernel from the pool.
func (b *Backend) Unload(ctx context.Context, path string) error {
	if path == "" {
		return errors.InvalidInput(errors.PhaseValidate, "path must not be empty")
	}
	pathSize, err := cstrSize(path)
	if err != nil {
		return err
	}
	return b.ar.WithAllocs(withErr(pathSize), func(ptrs []uint32) error {
		if err := codec.WriteCString(b.session.Memory(), ptrs[0], pathSize, path); err != nil {
			return err
		}
		return b.call(ctx, engine.FnUnload, ptrs[1], uint64(ptrs[0]))
	})
}

// Kclear unloads all kernels and clears the kernel pool.
func (b *Backend) Kclear(ctx context.Context) error {
	return b.ar.WithAllocs(withErr(), func(ptrs []uint32) error {
		return b.call(ctx, engine.FnKclear, ptrs[0])
	})
}

// Ktotal counts loaded kernels of the given kind ("ALL", "SPK", "CK", ...).
func (b *Backend) Ktotal(ctx context.Context, kind string) (int32, error) {
	if kind == "" {
		return 0, errors.InvalidInput(errors.PhaseValidate, "kind must not be empty")
	}
	kindSize, err := cstrSize(kind)
	if err != nil {
		return 0, err
	}
	var count int32
	err = b.ar.WithAllocs(withErr(kindSize, codec.Int32Bytes), func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], kindSize, kind); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnKtotal, ptrs[2],
			uint64(ptrs[0]), uint64(ptrs[1])); err != nil {
			return err
		}
		n, err := codec.ReadInt32(mem, ptrs[1])
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	return count, err
}
