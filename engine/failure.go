package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/rybosome/tspice-sub002/arena"
	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/errors"
)

// ErrBufBytes is the fixed capacity of the per-call error buffer, matching
// the engine's maximum failure message length.
const ErrBufBytes = 1841

// CaptureFailure translates a non-zero status code into a structured
// EngineError. It decodes the call's error buffer, queries the engine's
// process-global failure accessors for the short/long/explain/trace
// variants, then resets the engine's failure state so it cannot leak into
// the next call. errPtr must point at the failed call's error buffer and
// remain inside its allocation scope.
//
// The engine's failure state is process-wide; skipping the reset would make
// an unrelated later call inherit this one's failure context.
func CaptureFailure(ctx context.Context, s Session, ar *arena.Arena, code int32, errPtr uint32) *errors.EngineError {
	mem := s.Memory()

	message, err := codec.ReadCString(mem, errPtr, ErrBufBytes)
	if err != nil {
		Logger().Warn("failed to decode engine error buffer", zap.Error(err))
		message = ""
	}

	short := readLastError(ctx, s, ar, FnLastShort)
	long := readLastError(ctx, s, ar, FnLastLong)
	trace := readLastError(ctx, s, ar, FnLastTrace)
	explain := readMessage(ctx, s, ar, "EXPLAIN")

	resetFailureState(ctx, s, ar)

	return errors.NewEngineError(code, message, short, long, explain, trace)
}

// readLastError queries one of the engine's last-error accessors
// (short/long/trace). The accessors never fail; an empty string is returned
// on any transport problem.
func readLastError(ctx context.Context, s Session, ar *arena.Arena, name string) string {
	var out string
	err := ar.WithAlloc(ErrBufBytes, func(ptr uint32) error {
		status, err := s.Call(ctx, name, uint64(ptr), uint64(ErrBufBytes))
		if err != nil || status != 0 {
			return nil
		}
		out, _ = codec.ReadCString(s.Memory(), ptr, ErrBufBytes)
		return nil
	})
	if err != nil {
		Logger().Warn("failed to query engine failure state",
			zap.String("accessor", name),
			zap.Error(err))
	}
	return out
}

// readMessage queries the engine's getmsg entry point for a message variant
// ("SHORT", "LONG" or "EXPLAIN").
func readMessage(ctx context.Context, s Session, ar *arena.Arena, which string) string {
	var out string
	sizes := []uint32{uint32(len(which)) + 1, ErrBufBytes, ErrBufBytes}
	err := ar.WithAllocs(sizes, func(ptrs []uint32) error {
		mem := s.Memory()
		if err := codec.WriteCString(mem, ptrs[0], sizes[0], which); err != nil {
			return nil
		}
		status, err := s.Call(ctx, FnGetMsg,
			uint64(ptrs[0]), uint64(ptrs[1]), uint64(ErrBufBytes), uint64(ptrs[2]), uint64(ErrBufBytes))
		if err != nil || status != 0 {
			return nil
		}
		out, _ = codec.ReadCString(mem, ptrs[1], ErrBufBytes)
		return nil
	})
	if err != nil {
		Logger().Warn("failed to query engine message",
			zap.String("which", which),
			zap.Error(err))
	}
	return out
}

// resetFailureState clears the engine's process-global failure state. A
// reset failure is logged but never masks the original engine error.
func resetFailureState(ctx context.Context, s Session, ar *arena.Arena) {
	err := ar.WithAlloc(ErrBufBytes, func(ptr uint32) error {
		status, err := s.Call(ctx, FnReset, uint64(ptr), uint64(ErrBufBytes))
		if err != nil {
			return err
		}
		if status != 0 {
			msg, _ := codec.ReadCString(s.Memory(), ptr, ErrBufBytes)
			Logger().Warn("engine reset reported failure", zap.String("message", msg))
		}
		return nil
	})
	if err != nil {
		Logger().Warn("failed to reset engine failure state", zap.Error(err))
	}
}
