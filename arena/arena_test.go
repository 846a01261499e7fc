package arena

import (
	stderrors "errors"
	"testing"

	"github.com/rybosome/tspice-sub002/errors"
)

// countingAllocator is a bump allocator that tracks live allocations.
type countingAllocator struct {
	next    uint32
	live    map[uint32]uint32
	failAt  int // fail the Nth Alloc call (1-based), 0 = never
	allocs  int
	doubled bool // set if Free sees an unknown pointer
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{next: 8, live: make(map[uint32]uint32)}
}

func (c *countingAllocator) Alloc(size, align uint32) (uint32, error) {
	c.allocs++
	if c.failAt != 0 && c.allocs == c.failAt {
		return 0, stderrors.New("simulated allocation failure")
	}
	ptr := c.next
	c.next += (size + align - 1) &^ (align - 1)
	c.live[ptr] = size
	return ptr, nil
}

func (c *countingAllocator) Free(ptr, size, align uint32) {
	if _, ok := c.live[ptr]; !ok {
		c.doubled = true
		return
	}
	delete(c.live, ptr)
}

func TestArena_WithAllocLeakFree(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	var got uint32
	err := a.WithAlloc(64, func(ptr uint32) error {
		got = ptr
		if a.Outstanding() != 1 {
			t.Fatalf("expected 1 outstanding inside scope, got %d", a.Outstanding())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAlloc failed: %v", err)
	}
	if got == 0 {
		t.Fatal("fn never received a pointer")
	}
	if a.Outstanding() != 0 {
		t.Fatalf("leak: %d outstanding after scope", a.Outstanding())
	}
	if len(alloc.live) != 0 {
		t.Fatalf("allocator reports %d live regions", len(alloc.live))
	}
}

func TestArena_WithAllocFreesOnError(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	boom := stderrors.New("mid-call failure")
	err := a.WithAlloc(32, func(uint32) error { return boom })
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}
	if a.Outstanding() != 0 || len(alloc.live) != 0 {
		t.Fatal("regions leaked on error path")
	}
}

func TestArena_WithAllocFreesOnPanic(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		a.WithAlloc(16, func(uint32) error {
			panic("engine trapped")
		})
	}()

	if a.Outstanding() != 0 || len(alloc.live) != 0 {
		t.Fatal("regions leaked on panic path")
	}
}

func TestArena_WithAllocsBatch(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	sizes := []uint32{8, 1841, 48}
	err := a.WithAllocs(sizes, func(ptrs []uint32) error {
		if len(ptrs) != 3 {
			t.Fatalf("expected 3 pointers, got %d", len(ptrs))
		}
		if a.Outstanding() != 3 {
			t.Fatalf("expected 3 outstanding, got %d", a.Outstanding())
		}
		for i, p := range ptrs {
			if p == 0 {
				t.Fatalf("pointer %d is null", i)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAllocs failed: %v", err)
	}
	if a.Outstanding() != 0 || len(alloc.live) != 0 {
		t.Fatal("batch leaked")
	}
	if alloc.doubled {
		t.Fatal("double free detected")
	}
}

func TestArena_PartialBatchFailureFreesPrior(t *testing.T) {
	alloc := newCountingAllocator()
	alloc.failAt = 3
	a := New(alloc)

	err := a.WithAllocs([]uint32{8, 8, 8}, func([]uint32) error {
		t.Fatal("fn must not run when a batch allocation fails")
		return nil
	})
	if err == nil {
		t.Fatal("expected allocation error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindAllocation}) {
		t.Fatalf("expected allocation error kind, got %v", err)
	}
	if a.Outstanding() != 0 || len(alloc.live) != 0 {
		t.Fatal("prior regions leaked after partial batch failure")
	}
}

func TestArena_CeilingRejectedBeforeAllocation(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	err := a.WithAllocs([]uint32{MaxCallBytes, 1}, func([]uint32) error {
		t.Fatal("fn must not run for oversized batch")
		return nil
	})
	if err == nil {
		t.Fatal("expected ceiling violation")
	}
	if alloc.allocs != 0 {
		t.Fatalf("ceiling must be checked before any allocation; saw %d Alloc calls", alloc.allocs)
	}
}

func TestArena_RejectsZeroSizeAndEmptyBatch(t *testing.T) {
	a := New(newCountingAllocator())

	if err := a.WithAllocs(nil, func([]uint32) error { return nil }); err == nil {
		t.Fatal("expected error for empty batch")
	}
	if err := a.WithAllocs([]uint32{4, 0}, func([]uint32) error { return nil }); err == nil {
		t.Fatal("expected error for zero-byte region")
	}
}

func TestArena_NestedScopes(t *testing.T) {
	alloc := newCountingAllocator()
	a := New(alloc)

	err := a.WithAlloc(8, func(outer uint32) error {
		return a.WithAlloc(8, func(inner uint32) error {
			if outer == inner {
				t.Fatal("nested scopes returned the same region")
			}
			if a.Outstanding() != 2 {
				t.Fatalf("expected 2 outstanding in nested scope, got %d", a.Outstanding())
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested scopes failed: %v", err)
	}
	if a.Outstanding() != 0 {
		t.Fatal("nested scopes leaked")
	}
}
