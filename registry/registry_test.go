package registry

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/rybosome/tspice-sub002/errors"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	h, err := r.Register(KindEventTable, 17)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if h <= 0 {
		t.Fatalf("expected positive handle, got %d", h)
	}

	e, err := r.Lookup(h, []Kind{KindEventTable}, "test")
	if err != nil {
		t.Fatalf("Lookup with correct kind failed: %v", err)
	}
	if e.Native != 17 {
		t.Fatalf("expected native 17, got %d", e.Native)
	}

	// Lookup with any other kind fails with a kind-mismatch error.
	_, err = r.Lookup(h, []Kind{KindDirectAccessFile}, "test")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindKindMismatch}) {
		t.Fatalf("expected kind_mismatch, got %v", err)
	}
}

func TestRegistry_RegisterRejectsOutOfRange(t *testing.T) {
	r := New()

	if _, err := r.Register(KindEventTable, 1<<40); err == nil {
		t.Fatal("expected error for native handle outside 32-bit range")
	}
	if _, err := r.Register(KindEventTable, -(1 << 40)); err == nil {
		t.Fatal("expected error for negative out-of-range native handle")
	}
	// Boundary values are fine.
	if _, err := r.Register(KindEventTable, 2147483647); err != nil {
		t.Fatalf("max int32 should register: %v", err)
	}
	if _, err := r.Register(KindEventTable, -2147483648); err != nil {
		t.Fatalf("min int32 should register: %v", err)
	}
}

func TestRegistry_IdsNeverReused(t *testing.T) {
	r := New()

	var prev Handle
	for i := 0; i < 5; i++ {
		h, err := r.Register(KindDirectAccessFile, int64(i))
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if h <= prev {
			t.Fatalf("handle %d not greater than previous %d", h, prev)
		}
		if err := r.Close(h, []Kind{KindDirectAccessFile}, func(Entry) error { return nil }, "test"); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		prev = h
	}
}

func TestRegistry_ClosePermanentlyRetires(t *testing.T) {
	r := New()

	h, _ := r.Register(KindEventTable, 1)
	other, _ := r.Register(KindEventTable, 2)

	if err := r.Close(h, []Kind{KindEventTable}, func(Entry) error { return nil }, "ekcls"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Subsequent lookup and close on the same id fail as invalid-handle.
	wantInvalid := &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindInvalidHandle}
	if _, err := r.Lookup(h, []Kind{KindEventTable}, "ekcls"); !stderrors.Is(err, wantInvalid) {
		t.Fatalf("expected invalid_handle on lookup after close, got %v", err)
	}
	if err := r.Close(h, []Kind{KindEventTable}, func(Entry) error { return nil }, "ekcls"); !stderrors.Is(err, wantInvalid) {
		t.Fatalf("expected invalid_handle on double close, got %v", err)
	}

	// Other open handles are unaffected.
	if _, err := r.Lookup(other, []Kind{KindEventTable}, "ekcls"); err != nil {
		t.Fatalf("unrelated handle affected by close: %v", err)
	}
}

func TestRegistry_CloseKeepsEntryOnNativeFailure(t *testing.T) {
	r := New()

	h, _ := r.Register(KindDirectAccessSegment, 9)
	boom := stderrors.New("native close failed")

	err := r.Close(h, []Kind{KindDirectAccessSegment}, func(Entry) error { return boom }, "dascls")
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected native close error, got %v", err)
	}

	// The resource is assumed still open; the entry must survive for retry.
	if _, err := r.Lookup(h, []Kind{KindDirectAccessSegment}, "dascls"); err != nil {
		t.Fatalf("entry forgotten despite failed native close: %v", err)
	}

	if err := r.Close(h, []Kind{KindDirectAccessSegment}, func(Entry) error { return nil }, "dascls"); err != nil {
		t.Fatalf("retry close failed: %v", err)
	}
}

func TestRegistry_KindScenario(t *testing.T) {
	r := New()

	a, _ := r.Register(KindEventTable, 100)
	b, _ := r.Register(KindDirectAccessFile, 200)

	if err := r.Close(a, []Kind{KindEventTable}, func(Entry) error { return nil }, "ekcls"); err != nil {
		t.Fatalf("closing A failed: %v", err)
	}

	// B is still fine after A closes.
	if _, err := r.Lookup(b, []Kind{KindDirectAccessFile}, "dafcls"); err != nil {
		t.Fatalf("B lookup failed after closing A: %v", err)
	}

	// An event-table-only operation given B names B's actual kind.
	_, err := r.Lookup(b, []Kind{KindEventTable}, "ekacli")
	if err == nil {
		t.Fatal("expected kind mismatch for B in event-table-only operation")
	}
	if !strings.Contains(err.Error(), "direct-access-file") {
		t.Fatalf("mismatch error %q does not name the actual kind", err.Error())
	}
}

func TestRegistry_LookupRejectsNonPositive(t *testing.T) {
	r := New()

	for _, h := range []Handle{0, -1} {
		if _, err := r.Lookup(h, []Kind{KindEventTable}, "test"); err == nil {
			t.Fatalf("expected error for handle %d", h)
		}
	}
}

func TestRegistry_LenAndEach(t *testing.T) {
	r := New()
	r.Register(KindEventTable, 1)
	r.Register(KindDirectLinkedArray, 2)

	if r.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", r.Len())
	}

	count := 0
	r.Each(func(h Handle, e Entry) bool {
		count++
		return true
	})
	if count != 2 {
		t.Fatalf("Each visited %d entries, want 2", count)
	}
}
