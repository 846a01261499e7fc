package spice

import (
	"context"
	"math"

	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/errors"
)

// State is a position/velocity pair: kilometers and kilometers per second
// in the requested reference frame.
type State struct {
	Position [3]float64
	Velocity [3]float64
}

// SpkEzr returns the state of target relative to observer at et, in the
// given reference frame with the given aberration correction, plus the
// one-way light time in seconds.
func (b *Backend) SpkEzr(ctx context.Context, target string, et float64, frame, abcorr, observer string) (State, float64, error) {
	var state State
	for _, arg := range []struct{ name, val string }{
		{"target", target}, {"frame", frame}, {"abcorr", abcorr}, {"observer", observer},
	} {
		if arg.val == "" {
			return state, 0, errors.InvalidInput(errors.PhaseValidate, "%s must not be empty", arg.name)
		}
	}

	targetSize, err := cstrSize(target)
	if err != nil {
		return state, 0, err
	}
	frameSize, err := cstrSize(frame)
	if err != nil {
		return state, 0, err
	}
	abcorrSize, err := cstrSize(abcorr)
	if err != nil {
		return state, 0, err
	}
	observerSize, err := cstrSize(observer)
	if err != nil {
		return state, 0, err
	}

	var lightTime float64
	sizes := withErr(targetSize, frameSize, abcorrSize, observerSize,
		6*codec.Float64Bytes, codec.Float64Bytes)
	err = b.ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := b.session.Memory()
		for i, s := range []string{target, frame, abcorr, observer} {
			if err := codec.WriteCString(mem, ptrs[i], sizes[i], s); err != nil {
				return err
			}
		}
		statePtr, ltPtr, errBuf := ptrs[4], ptrs[5], ptrs[6]
		if err := b.call(ctx, engine.FnSpkEzr, errBuf,
			uint64(ptrs[0]), math.Float64bits(et), uint64(ptrs[1]),
			uint64(ptrs[2]), uint64(ptrs[3]),
			uint64(statePtr), uint64(ltPtr)); err != nil {
			return err
		}
		vals, err := codec.ReadFloat64s(mem, statePtr, 6)
		if err != nil {
			return err
		}
		copy(state.Position[:], vals[:3])
		copy(state.Velocity[:], vals[3:])
		lt, err := codec.ReadFloat64(mem, ltPtr)
		if err != nil {
			return err
		}
		lightTime = lt
		return nil
	})
	return state, lightTime, err
}
