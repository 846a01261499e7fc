package columnar

import (
	"math"

	tspice "github.com/rybosome/tspice-sub002"
	"github.com/rybosome/tspice-sub002/codec"
	"github.com/rybosome/tspice-sub002/errors"
)

// MaxTotalValues caps the summed entry count of one bulk write. The engine
// has no transactional rollback for a table write, so the cap (together with
// the arena's byte ceiling) keeps a hostile row count from forcing an
// oversized allocation.
const MaxTotalValues = 1 << 22

// Request describes one bulk write into a tabular engine resource: a
// per-row entry count, a per-row null flag, and the engine-issued per-row
// record pointers from segment initialization. The flattened value array the
// write carries must hold exactly the sum of the entry counts.
type Request struct {
	EntrySizes []int32
	NullFlags  []bool
	RecordPtrs []int32
}

// Rows returns the row count declared by the entry-size array.
func (r Request) Rows() int {
	return len(r.EntrySizes)
}

// Validate runs the full shape check and returns the required value count.
// Order matters and no side effect precedes it:
//
//  1. The three per-row arrays must have equal length.
//  2. The row count itself is capped at MaxTotalValues so the bookkeeping
//     regions stay within 32-bit byte arithmetic.
//  3. Null rows need EntrySizes[i] >= 0, non-null rows >= 1; violations name
//     the offending row.
//  4. The running sum is checked against the 32-bit signed maximum and
//     MaxTotalValues.
//  5. valueCount must equal the sum exactly.
//
// A request that fails any check never reaches the engine.
func (r Request) Validate(valueCount int) (int32, error) {
	if len(r.NullFlags) != len(r.EntrySizes) || len(r.RecordPtrs) != len(r.EntrySizes) {
		return 0, errors.ShapeMismatch(nil,
			"parallel array length mismatch: entszs=%d nlflgs=%d rcptrs=%d",
			len(r.EntrySizes), len(r.NullFlags), len(r.RecordPtrs))
	}
	if len(r.EntrySizes) == 0 {
		return 0, errors.InvalidInput(errors.PhaseValidate, "bulk write must have at least one row")
	}
	if len(r.EntrySizes) > MaxTotalValues {
		return 0, errors.Overflow([]string{"entszs"},
			"row count %d exceeds maximum %d", len(r.EntrySizes), int64(MaxTotalValues))
	}

	var sum int64
	for i, sz := range r.EntrySizes {
		if r.NullFlags[i] {
			if sz < 0 {
				return 0, errors.New(errors.PhaseValidate, errors.KindShapeMismatch).
					Path("entszs").
					Detail("row %d: null entries must have size >= 0, got %d", i, sz).
					Build()
			}
		} else if sz < 1 {
			return 0, errors.New(errors.PhaseValidate, errors.KindShapeMismatch).
				Path("entszs").
				Detail("row %d: non-null entries must have size >= 1, got %d", i, sz).
				Build()
		}

		sum += int64(sz)
		if sum > math.MaxInt32 {
			return 0, errors.Overflow([]string{"entszs"}, "total value count overflows int32 at row %d", i)
		}
		if sum > MaxTotalValues {
			return 0, errors.Overflow([]string{"entszs"},
				"total value count %d exceeds maximum %d at row %d", sum, int64(MaxTotalValues), i)
		}
	}

	if int64(valueCount) != sum {
		return 0, errors.ShapeMismatch([]string{"values"},
			"value count mismatch: expected %d (sum of entry sizes), got %d", sum, valueCount)
	}
	return int32(sum), nil
}

// RegionSizes returns the byte sizes of the four regions a validated request
// needs, in encode order: entszs, nlflgs, rcptrs, then the value region of
// valueRegionBytes. Feed the result directly to the arena's batch allocator.
// The multiplication cannot wrap because Validate bounds the row count.
func (r Request) RegionSizes(valueRegionBytes uint32) []uint32 {
	rows := uint32(r.Rows())
	return []uint32{
		rows * codec.Int32Bytes,
		rows * codec.Int32Bytes,
		rows * codec.Int32Bytes,
		valueRegionBytes,
	}
}

// EncodeTo writes the three bookkeeping arrays into their regions. The value
// region is encoded separately by the caller, whose element type (int32,
// float64 or fixed-stride string) the write entry point dictates.
func (r Request) EncodeTo(mem tspice.Memory, entszsPtr, nlflgsPtr, rcptrsPtr uint32) error {
	if err := codec.WriteInt32s(mem, entszsPtr, r.EntrySizes); err != nil {
		return err
	}
	if err := codec.WriteBools(mem, nlflgsPtr, r.NullFlags); err != nil {
		return err
	}
	return codec.WriteInt32s(mem, rcptrsPtr, r.RecordPtrs)
}
