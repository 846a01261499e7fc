package codec

import (
	"encoding/binary"
	"math"

	tspice "github.com/rybosome/tspice-sub002"
	"github.com/rybosome/tspice-sub002/errors"
)

// Element sizes of the two scalar widths the engine ABI carries.
const (
	Int32Bytes   = 4
	Float64Bytes = 8
)

// WriteInt32s encodes vals as little-endian 32-bit integers at ptr. ptr must
// be 4-byte aligned.
func WriteInt32s(mem tspice.Memory, ptr uint32, vals []int32) error {
	if ptr%Int32Bytes != 0 {
		return errors.Misaligned(errors.PhaseEncode, ptr, Int32Bytes)
	}
	if len(vals) == 0 {
		return nil
	}
	buf := make([]byte, Int32Bytes*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*Int32Bytes:], uint32(v))
	}
	if err := mem.Write(ptr, buf); err != nil {
		return errors.OutOfBounds(errors.PhaseEncode, ptr, uint32(len(buf)), err)
	}
	return nil
}

// ReadInt32s decodes count little-endian 32-bit integers from ptr. All reads
// are bounds-checked; an out-of-bounds read fails fast.
func ReadInt32s(mem tspice.Memory, ptr uint32, count int) ([]int32, error) {
	if ptr%Int32Bytes != 0 {
		return nil, errors.Misaligned(errors.PhaseDecode, ptr, Int32Bytes)
	}
	if count < 0 {
		return nil, errors.InvalidInput(errors.PhaseDecode, "negative element count %d", count)
	}
	byteLen := uint64(count) * Int32Bytes
	if byteLen > math.MaxUint32 {
		return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("element count %d overflows the 32-bit address space", count).
			Build()
	}
	buf, err := mem.Read(ptr, uint32(byteLen))
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseDecode, ptr, uint32(byteLen), err)
	}
	vals := make([]int32, count)
	for i := range vals {
		vals[i] = int32(binary.LittleEndian.Uint32(buf[i*Int32Bytes:]))
	}
	return vals, nil
}

// ReadInt32 decodes a single 32-bit integer at ptr.
func ReadInt32(mem tspice.Memory, ptr uint32) (int32, error) {
	vals, err := ReadInt32s(mem, ptr, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// WriteInt32 encodes a single 32-bit integer at ptr.
func WriteInt32(mem tspice.Memory, ptr uint32, val int32) error {
	return WriteInt32s(mem, ptr, []int32{val})
}

// WriteFloat64s encodes vals as little-endian IEEE 754 doubles at ptr. ptr
// must be 8-byte aligned.
func WriteFloat64s(mem tspice.Memory, ptr uint32, vals []float64) error {
	if ptr%Float64Bytes != 0 {
		return errors.Misaligned(errors.PhaseEncode, ptr, Float64Bytes)
	}
	if len(vals) == 0 {
		return nil
	}
	buf := make([]byte, Float64Bytes*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*Float64Bytes:], math.Float64bits(v))
	}
	if err := mem.Write(ptr, buf); err != nil {
		return errors.OutOfBounds(errors.PhaseEncode, ptr, uint32(len(buf)), err)
	}
	return nil
}

// ReadFloat64s decodes count little-endian doubles from ptr.
func ReadFloat64s(mem tspice.Memory, ptr uint32, count int) ([]float64, error) {
	if ptr%Float64Bytes != 0 {
		return nil, errors.Misaligned(errors.PhaseDecode, ptr, Float64Bytes)
	}
	if count < 0 {
		return nil, errors.InvalidInput(errors.PhaseDecode, "negative element count %d", count)
	}
	byteLen := uint64(count) * Float64Bytes
	if byteLen > math.MaxUint32 {
		return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("element count %d overflows the 32-bit address space", count).
			Build()
	}
	buf, err := mem.Read(ptr, uint32(byteLen))
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseDecode, ptr, uint32(byteLen), err)
	}
	vals := make([]float64, count)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*Float64Bytes:]))
	}
	return vals, nil
}

// ReadFloat64 decodes a single double at ptr.
func ReadFloat64(mem tspice.Memory, ptr uint32) (float64, error) {
	vals, err := ReadFloat64s(mem, ptr, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// WriteBools encodes flags as 32-bit 0/1 integers, the engine's boolean
// representation.
func WriteBools(mem tspice.Memory, ptr uint32, flags []bool) error {
	vals := make([]int32, len(flags))
	for i, f := range flags {
		if f {
			vals[i] = 1
		}
	}
	return WriteInt32s(mem, ptr, vals)
}

// ReadBool decodes a 32-bit engine boolean at ptr. Any non-zero value is
// true, matching the engine's convention.
func ReadBool(mem tspice.Memory, ptr uint32) (bool, error) {
	v, err := ReadInt32(mem, ptr)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}
