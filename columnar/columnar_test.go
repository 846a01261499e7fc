package columnar

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rybosome/tspice-sub002/errors"
)

func validRequest() Request {
	return Request{
		EntrySizes: []int32{2, 0, 3},
		NullFlags:  []bool{false, true, false},
		RecordPtrs: []int32{0, 2, 2},
	}
}

func TestValidate_AcceptsWellFormedRequest(t *testing.T) {
	total, err := validRequest().Validate(5)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
}

func TestValidate_ValueCountMismatch(t *testing.T) {
	for _, count := range []int{4, 6} {
		_, err := validRequest().Validate(count)
		if err == nil {
			t.Fatalf("expected mismatch error for count %d", count)
		}
		msg := err.Error()
		if !strings.Contains(msg, "expected 5") {
			t.Errorf("message %q does not state expected count", msg)
		}
		if !strings.Contains(msg, fmt.Sprintf("got %d", count)) {
			t.Errorf("message %q does not state actual count %d", msg, count)
		}
	}
}

func TestValidate_LengthMismatch(t *testing.T) {
	req := Request{
		EntrySizes: []int32{1, 1},
		NullFlags:  []bool{false},
		RecordPtrs: []int32{0, 0},
	}
	_, err := req.Validate(2)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindShapeMismatch}) {
		t.Fatalf("expected shape_mismatch, got %v", err)
	}
}

func TestValidate_PerRowRules(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		row  string
	}{
		{
			name: "non-null row with zero size",
			req: Request{
				EntrySizes: []int32{1, 0},
				NullFlags:  []bool{false, false},
				RecordPtrs: []int32{0, 0},
			},
			row: "row 1",
		},
		{
			name: "null row with negative size",
			req: Request{
				EntrySizes: []int32{-1, 1},
				NullFlags:  []bool{true, false},
				RecordPtrs: []int32{0, 0},
			},
			row: "row 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate(1)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.row) {
				t.Errorf("message %q does not name %s", err.Error(), tt.row)
			}
		})
	}
}

func TestValidate_NullRowZeroIsLegal(t *testing.T) {
	req := Request{
		EntrySizes: []int32{0},
		NullFlags:  []bool{true},
		RecordPtrs: []int32{0},
	}
	if _, err := req.Validate(0); err != nil {
		t.Fatalf("null row with zero size must validate: %v", err)
	}
}

func TestValidate_OverflowDetection(t *testing.T) {
	// Two rows large enough that the running sum blows the int32 accumulator.
	req := Request{
		EntrySizes: []int32{2147483647, 2147483647},
		NullFlags:  []bool{false, false},
		RecordPtrs: []int32{0, 0},
	}
	_, err := req.Validate(0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindOverflow}) {
		t.Fatalf("expected overflow error, got %v", err)
	}
}

func TestValidate_TotalCap(t *testing.T) {
	req := Request{
		EntrySizes: []int32{MaxTotalValues, 1},
		NullFlags:  []bool{false, false},
		RecordPtrs: []int32{0, 0},
	}
	_, err := req.Validate(MaxTotalValues + 1)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindOverflow}) {
		t.Fatalf("expected size-limit error, got %v", err)
	}
}

func TestValidate_RowCountCap(t *testing.T) {
	// A row count past the cap would wrap the 32-bit byte sizes of the
	// bookkeeping regions, so it must fail before any per-row work.
	n := MaxTotalValues + 1
	req := Request{
		EntrySizes: make([]int32, n),
		NullFlags:  make([]bool, n),
		RecordPtrs: make([]int32, n),
	}
	for i := range req.NullFlags {
		req.NullFlags[i] = true
	}
	_, err := req.Validate(0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindOverflow}) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if !strings.Contains(err.Error(), "row count") {
		t.Fatalf("message %q does not name the row count", err.Error())
	}
}

func TestValidate_EmptyRequest(t *testing.T) {
	if _, err := (Request{}).Validate(0); err == nil {
		t.Fatal("expected error for zero-row request")
	}
}

func TestRegionSizes(t *testing.T) {
	sizes := validRequest().RegionSizes(40)
	want := []uint32{12, 12, 12, 40}
	if len(sizes) != len(want) {
		t.Fatalf("expected %d regions, got %d", len(want), len(sizes))
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("region %d: got %d bytes, want %d", i, sizes[i], want[i])
		}
	}
}
