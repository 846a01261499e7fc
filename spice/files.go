package spice

import (
	"context"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
	"github.com/rybosome/tspice-sub002/registry"
)

// openFile runs an open entry point of shape (path, outHandle) and registers
// the returned native handle under kind.
func (b *Backend) openFile(ctx context.Context, fn string, kind registry.Kind, path string) (registry.Handle, error) {
	if path == "" {
		return 0, errors.InvalidInput(errors.PhaseValidate, "path must not be empty")
	}
	pathSize, err := cstrSize(path)
	if err != nil {
		return 0, err
	}
	var native int32
	err = b.ar.WithAllocs(withErr(pathSize, codec.Int32Bytes), func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], pathSize, path); err != nil {
			return err
		}
		if err := b.call(ctx, fn, ptrs[2], uint64(ptrs[0]), uint64(ptrs[1])); err != nil {
			return err
		}
		n, err := codec.ReadInt32(mem, ptrs[1])
		if err != nil {
			return err
		}
		native = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return b.register(kind, native)
}

// closeHandle retires a handle through its close entry point. The registry
// entry survives a failed native close so the caller can retry.
func (b *Backend) closeHandle(ctx context.Context, fn string, h registry.Handle, allowed []registry.Kind, op string) error {
	return b.reg.Close(h, allowed, func(e registry.Entry) error {
		return b.ar.WithAllocs(withErr(), func(ptrs []uint32) error {
			return b.call(ctx, fn, ptrs[0], uint64(uint32(e.Native)))
		})
	}, op)
}

// DafOpenRead opens a direct-access file for reading.
func (b *Backend) DafOpenRead(ctx context.Context, path string) (registry.Handle, error) {
	return b.openFile(ctx, engine.FnDafOpenRead, registry.KindDirectAccessFile, path)
}

// DafBeginForwardSearch starts a forward array search on an open
// direct-access file.
func (b *Backend) DafBeginForwardSearch(ctx context.Context, h registry.Handle) error {
	e, err := b.reg.Lookup(h, []registry.Kind{registry.KindDirectAccessFile}, "dafbfs")
	if err != nil {
		return err
	}
	return b.ar.WithAllocs(withErr(), func(ptrs []uint32) error {
		return b.call(ctx, engine.FnDafBegin, ptrs[0], uint64(uint32(e.Native)))
	})
}

// DafFindNextArray advances the active forward search and reports whether
// another array was found.
func (b *Backend) DafFindNextArray(ctx context.Context, h registry.Handle) (bool, error) {
	e, err := b.reg.Lookup(h, []registry.Kind{registry.KindDirectAccessFile}, "daffna")
	if err != nil {
		return false, err
	}
	var found bool
	err = b.ar.WithAllocs(withErr(codec.Int32Bytes), func(ptrs []uint32) error {
		if err := b.call(ctx, engine.FnDafNext, ptrs[1],
			uint64(uint32(e.Native)), uint64(ptrs[0])); err != nil {
			return err
		}
		f, err := codec.ReadBool(b.session.Memory(), ptrs[0])
		if err != nil {
			return err
		}
		found = f
		return nil
	})
	return found, err
}

// DafClose closes a direct-access file and retires its handle.
func (b *Backend) DafClose(ctx context.Context, h registry.Handle) error {
	return b.closeHandle(ctx, engine.FnDafClose, h,
		[]registry.Kind{registry.KindDirectAccessFile}, "dafcls")
}

// DasOpenRead opens a direct-access segment file for reading.
func (b *Backend) DasOpenRead(ctx context.Context, path string) (registry.Handle, error) {
	return b.openFile(ctx, engine.FnDasOpenRead, registry.KindDirectAccessSegment, path)
}

// DasClose closes a direct-access segment file and retires its handle.
// Direct-linked-array handles also close through this entry point.
func (b *Backend) DasClose(ctx context.Context, h registry.Handle) error {
	return b.closeHandle(ctx, engine.FnDasClose, h,
		[]registry.Kind{registry.KindDirectAccessSegment, registry.KindDirectLinkedArray}, "dascls")
}

// DlaOpen creates a new direct-linked-array file. ftype is the file type
// tag, ifname the internal file name, ncomch the comment area size in
// characters. The handle closes through DasClose.
func (b *Backend) DlaOpen(ctx context.Context, path, ftype, ifname string, ncomch int32) (registry.Handle, error) {
	if path == "" {
		return 0, errors.InvalidInput(errors.PhaseValidate, "path must not be empty")
	}
	if ncomch < 0 {
		return 0, errors.InvalidInput(errors.PhaseValidate, "ncomch must be >= 0, got %d", ncomch)
	}
	pathSize, err := cstrSize(path)
	if err != nil {
		return 0, err
	}
	ftypeSize, err := cstrSize(ftype)
	if err != nil {
		return 0, err
	}
	ifnameSize, err := cstrSize(ifname)
	if err != nil {
		return 0, err
	}
	var native int32
	sizes := withErr(pathSize, ftypeSize, ifnameSize, codec.Int32Bytes)
	err = b.ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := b.session.Memory()
		for i, s := range []string{path, ftype, ifname} {
			if err := codec.WriteCString(mem, ptrs[i], sizes[i], s); err != nil {
				return err
			}
		}
		if err := b.call(ctx, engine.FnDlaOpen, ptrs[4],
			uint64(ptrs[0]), uint64(ptrs[1]), uint64(ptrs[2]),
			uint64(uint32(ncomch)), uint64(ptrs[3])); err != nil {
			return err
		}
		n, err := codec.ReadInt32(mem, ptrs[3])
		if err != nil {
			return err
		}
		native = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return b.register(registry.KindDirectLinkedArray, native)
}
