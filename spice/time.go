package spice

import (
	"context"
	"math"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
)

// Str2ET converts a time string to ephemeris seconds past J2000.
func (b *Backend) Str2ET(ctx context.Context, time string) (float64, error) {
	if time == "" {
		return 0, errors.InvalidInput(errors.PhaseValidate, "time string must not be empty")
	}
	timeSize, err := cstrSize(time)
	if err != nil {
		return 0, err
	}
	var et float64
	err = b.ar.WithAllocs(withErr(timeSize, codec.Float64Bytes), func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], timeSize, time); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnStr2ET, ptrs[2],
			uint64(ptrs[0]), uint64(ptrs[1])); err != nil {
			return err
		}
		v, err := codec.ReadFloat64(mem, ptrs[1])
		if err != nil {
			return err
		}
		et = v
		return nil
	})
	return et, err
}

// ET2UTC formats an ephemeris time as a UTC string. format selects the
// engine's output style ("C", "D", "J", "ISOC", "ISOD"); prec is the number
// of fractional-second digits.
func (b *Backend) ET2UTC(ctx context.Context, et float64, format string, prec int32) (string, error) {
	if format == "" {
		return "", errors.InvalidInput(errors.PhaseValidate, "format must not be empty")
	}
	if prec < 0 {
		return "", errors.InvalidInput(errors.PhaseValidate, "prec must be >= 0, got %d", prec)
	}
	formatSize, err := cstrSize(format)
	if err != nil {
		return "", err
	}
	var utc string
	err = b.ar.WithAllocs(withErr(formatSize, outTextBytes), func(ptrs []uint32) error {
		mem := b.session.Memory()
		if err := codec.WriteCString(mem, ptrs[0], formatSize, format); err != nil {
			return err
		}
		if err := b.call(ctx, engine.FnET2UTC, ptrs[2],
			math.Float64bits(et), uint64(ptrs[0]), uint64(uint32(prec)),
			uint64(ptrs[1]), uint64(outTextBytes)); err != nil {
			return err
		}
		s, err := codec.ReadCString(mem, ptrs[1], outTextBytes)
		if err != nil {
			return err
		}
		utc = s
		return nil
	})
	return utc, err
}
