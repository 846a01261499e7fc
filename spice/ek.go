package spice

import (
	"context"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/columnar"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
	"github.com/rybosome/tspice-sub002/registry"
)

var eventTableOnly = []registry.Kind{registry.KindEventTable}

// EkOpenNew creates a new event table file. ifname is the internal file
// name, ncomch the comment area size in characters.
func (b *Backend) EkOpenNew(ctx context.Context, path, ifname string, ncomch int32) (registry.Handle, error) {
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
	ifnameSize, err := cstrSize(ifname)
	if err != nil {
		return 0, err
	}
	var native int32
	sizes := withErr(pathSize, ifnameSize, codec.Int32Bytes)
	err = b.ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], sizes[0], path); err != nil {
			return err
		}
		if err := codec.WriteCString(mem, ptrs[1], sizes[1], ifname); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnEkOpenNew, ptrs[3],
			uint64(ptrs[0]), uint64(ptrs[1]), uint64(uint32(ncomch)), uint64(ptrs[2])); err != nil {
			return err
		}
		n, err := codec.ReadInt32(mem, ptrs[2])
		if err != nil {
			return err
		}
		native = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return b.register(registry.KindEventTable, native)
}

// EkOpenRead opens an existing event table file for reading.
func (b *Backend) EkOpenRead(ctx context.Context, path string) (registry.Handle, error) {
	return b.openFile(ctx, engine.FnEkOpenRead, registry.KindEventTable, path)
}

// EkOpenWrite opens an existing event table file for writing.
func (b *Backend) EkOpenWrite(ctx context.Context, path string) (registry.Handle, error) {
	return b.openFile(ctx, engine.FnEkOpenWrite, registry.KindEventTable, path)
}

// EkClose closes an event table file and retires its handle.
func (b *Backend) EkClose(ctx context.Context, h registry.Handle) error {
	return b.closeHandle(ctx, engine.FnEkClose, h, eventTableOnly, "ekcls")
}

// fixedArrayStride returns the stride for a fixed-width string array holding
// strs: the longest entry plus its NUL, floored at the codec minimum.
func fixedArrayStride(strs []string) uint32 {
	stride := uint32(codec.MaxByteLen(strs)) + 1
	if stride < codec.MinStride {
		stride = codec.MinStride
	}
	return stride
}

// EkInitSegment starts a fast-write segment on an open event table. table
// names the segment's table; colNames and colDecls are parallel column
// name/declaration arrays. It returns the segment number and the record
// pointer array the subsequent column writes and the final commit require.
func (b *Backend) EkInitSegment(ctx context.Context, h registry.Handle, table string, colNames, colDecls []string, nrows int32) (int32, []int32, error) {
	e, err := b.reg.Lookup(h, eventTableOnly, "ekifld")
	if err != nil {
		return 0, nil, err
	}
	if table == "" {
		return 0, nil, errors.InvalidInput(errors.PhaseValidate, "table name must not be empty")
	}
	if len(colNames) == 0 {
		return 0, nil, errors.InvalidInput(errors.PhaseValidate, "segment must declare at least one column")
	}
	if len(colDecls) != len(colNames) {
		return 0, nil, errors.ShapeMismatch(nil,
			"column declaration count mismatch: %d names, %d declarations",
			len(colNames), len(colDecls))
	}
	if nrows <= 0 {
		return 0, nil, errors.InvalidInput(errors.PhaseValidate, "nrows must be > 0, got %d", nrows)
	}

	tableSize, err := cstrSize(table)
	if err != nil {
		return 0, nil, err
	}
	ncols := uint32(len(colNames))
	nameStride := fixedArrayStride(colNames)
	declStride := fixedArrayStride(colDecls)
	namesBytes, err := regionSize(uint64(ncols), uint64(nameStride))
	if err != nil {
		return 0, nil, err
	}
	declsBytes, err := regionSize(uint64(ncols), uint64(declStride))
	if err != nil {
		return 0, nil, err
	}
	rcptrsBytes, err := regionSize(uint64(nrows), codec.Int32Bytes)
	if err != nil {
		return 0, nil, err
	}

	var segno int32
	var rcptrs []int32
	sizes := withErr(tableSize, namesBytes, declsBytes, codec.Int32Bytes, rcptrsBytes)
	err = b.ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], sizes[0], table); err != nil {
			return err
		}
		if err := codec.EncodeFixedStrings(mem, ptrs[1], nameStride, colNames); err != nil {
			return err
		}
		if err := codec.EncodeFixedStrings(mem, ptrs[2], declStride, colDecls); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnEkInitSegment, ptrs[5],
			uint64(uint32(e.Native)), uint64(ptrs[0]),
			uint64(ncols), uint64(uint32(nrows)),
			uint64(nameStride), uint64(ptrs[1]),
			uint64(declStride), uint64(ptrs[2]),
			uint64(ptrs[3]), uint64(ptrs[4])); err != nil {
			return err
		}
		s, err := codec.ReadInt32(mem, ptrs[3])
		if err != nil {
			return err
		}
		r, err := codec.ReadInt32s(mem, ptrs[4], int(nrows))
		if err != nil {
			return err
		}
		segno, rcptrs = s, r
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return segno, rcptrs, nil
}

// addColumn runs the shared shape validation and region setup for the three
// column writers, then hands off to encode for type-specific work. No engine
// call happens unless the whole request validates.
func (b *Backend) addColumn(
	ctx context.Context,
	op string,
	h registry.Handle,
	segno int32,
	column string,
	req columnar.Request,
	valueCount int,
	valueRegionBytes uint32,
	invoke func(e registry.Entry, colPtr uint32, nvals int32, regions []uint32, errPtr uint32) error,
) error {
	e, err := b.reg.Lookup(h, eventTableOnly, op)
	if err != nil {
		return err
	}
	if segno < 0 {
		return errors.InvalidInput(errors.PhaseValidate, "segno must be >= 0, got %d", segno)
	}
	if column == "" {
		return errors.InvalidInput(errors.PhaseValidate, "column name must not be empty")
	}
	nvals, err := req.Validate(valueCount)
	if err != nil {
		return err
	}

	colSize, err := cstrSize(column)
	if err != nil {
		return err
	}
	regions := req.RegionSizes(valueRegionBytes)
	if regions[3] == 0 {
		// An all-null write carries no values. The engine never reads the
		// value pointer when nvals is zero, but the arena still needs a
		// real region to hand out.
		regions[3] = 1
	}
	sizes := withErr(append([]uint32{colSize}, regions...)...)
	return b.ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], colSize, column); err != nil {
			return err
		}
		if err := req.EncodeTo(mem, ptrs[1], ptrs[2], ptrs[3]); err != nil {
			return err
		}
		return invoke(e, ptrs[0], nvals, ptrs[1:5], ptrs[5])
	})
}

// EkAddIntColumn writes one integer column of a fast-write segment. values
// holds the concatenated entries in row order; req describes the per-row
// shape exactly as returned by EkInitSegment.
func (b *Backend) EkAddIntColumn(ctx context.Context, h registry.Handle, segno int32, column string, values []int32, req columnar.Request) error {
	valueBytes, err := regionSize(uint64(len(values)), codec.Int32Bytes)
	if err != nil {
		return err
	}
	return b.addColumn(ctx, "ekacli", h, segno, column, req, len(values), valueBytes,
		func(e registry.Entry, colPtr uint32, nvals int32, regions []uint32, errPtr uint32) error {
			if err := codec.WriteInt32s(b.session.Memory(), regions[3], values); err != nil {
				return err
			}
			return b.call(ctx, engine.FnEkAddInt, errPtr,
				uint64(uint32(e.Native)), uint64(uint32(segno)), uint64(colPtr),
				uint64(uint32(req.Rows())),
				uint64(regions[3]), uint64(uint32(nvals)),
				uint64(regions[0]), uint64(regions[1]), uint64(regions[2]))
		})
}

// EkAddDoubleColumn writes one double-precision column of a fast-write
// segment.
func (b *Backend) EkAddDoubleColumn(ctx context.Context, h registry.Handle, segno int32, column string, values []float64, req columnar.Request) error {
	valueBytes, err := regionSize(uint64(len(values)), codec.Float64Bytes)
	if err != nil {
		return err
	}
	return b.addColumn(ctx, "ekacld", h, segno, column, req, len(values), valueBytes,
		func(e registry.Entry, colPtr uint32, nvals int32, regions []uint32, errPtr uint32) error {
			if err := codec.WriteFloat64s(b.session.Memory(), regions[3], values); err != nil {
				return err
			}
			return b.call(ctx, engine.FnEkAddDouble, errPtr,
				uint64(uint32(e.Native)), uint64(uint32(segno)), uint64(colPtr),
				uint64(uint32(req.Rows())),
				uint64(regions[3]), uint64(uint32(nvals)),
				uint64(regions[0]), uint64(regions[1]), uint64(regions[2]))
		})
}

// EkAddStringColumn writes one character column of a fast-write segment.
// The values travel as a fixed-width array whose stride covers the longest
// entry; the engine receives the stride as the column's value length.
func (b *Backend) EkAddStringColumn(ctx context.Context, h registry.Handle, segno int32, column string, values []string, req columnar.Request) error {
	stride := fixedArrayStride(values)
	valueBytes, err := regionSize(uint64(len(values)), uint64(stride))
	if err != nil {
		return err
	}
	return b.addColumn(ctx, "ekaclc", h, segno, column, req, len(values), valueBytes,
		func(e registry.Entry, colPtr uint32, nvals int32, regions []uint32, errPtr uint32) error {
			if err := codec.EncodeFixedStrings(b.session.Memory(), regions[3], stride, values); err != nil {
				return err
			}
			return b.call(ctx, engine.FnEkAddString, errPtr,
				uint64(uint32(e.Native)), uint64(uint32(segno)), uint64(colPtr),
				uint64(uint32(req.Rows())),
				uint64(uint32(nvals)), uint64(stride), uint64(valueBytes),
				uint64(regions[3]),
				uint64(regions[0]), uint64(regions[1]), uint64(regions[2]))
		})
}

// EkFinishSegment commits a fast-write segment. rcptrs must be the record
// pointer array returned by EkInitSegment for the same segment.
func (b *Backend) EkFinishSegment(ctx context.Context, h registry.Handle, segno int32, rcptrs []int32) error {
	e, err := b.reg.Lookup(h, eventTableOnly, "ekffld")
	if err != nil {
		return err
	}
	if segno < 0 {
		return errors.InvalidInput(errors.PhaseValidate, "segno must be >= 0, got %d", segno)
	}
	if len(rcptrs) == 0 {
		return errors.InvalidInput(errors.PhaseValidate, "rcptrs must not be empty")
	}
	rcptrsBytes, err := regionSize(uint64(len(rcptrs)), codec.Int32Bytes)
	if err != nil {
		return err
	}
	return b.ar.WithAllocs(withErr(rcptrsBytes), func(ptrs []uint32) error {
		if err := codec.WriteInt32s(b.session.Memory(), ptrs[0], rcptrs); err != nil {
			return err
		}
		return b.call(ctx, engine.FnEkFinish, ptrs[1],
			uint64(uint32(e.Native)), uint64(uint32(segno)), uint64(ptrs[0]))
	})
}
