package arena

import (
	"sync"
	"sync/atomic"

	tspice "github.com/rybosome/tspice-sub002"
	"github.com/rybosome/tspice-sub002/errors"
)

const (
	// MaxCallBytes caps the total bytes a single call may allocate. Sized to
	// comfortably hold the largest legal columnar write plus bookkeeping;
	// anything above it indicates a pathological or hostile input.
	MaxCallBytes = 64 << 20

	// regionAlign is the alignment requested for every region. The engine
	// traffics in 64-bit floats, so everything is 8-byte aligned.
	regionAlign = 8
)

type allocation struct {
	ptr  uint32
	size uint32
}

type allocationList struct {
	allocations []allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &allocationList{allocations: make([]allocation, 0, 8)}
	},
}

const maxPooledAllocationCapacity = 128

func newAllocationList() *allocationList {
	return allocationListPool.Get().(*allocationList)
}

// release returns to pool. Must call after free; list invalid after release.
func (al *allocationList) release() {
	// Only pool small lists to prevent memory bloat
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.allocations = al.allocations[:0]
	allocationListPool.Put(al)
}

func (al *allocationList) add(ptr, size uint32) {
	al.allocations = append(al.allocations, allocation{ptr: ptr, size: size})
}

func (al *allocationList) free(alloc tspice.Allocator) int {
	n := 0
	for _, a := range al.allocations {
		if a.ptr != 0 {
			alloc.Free(a.ptr, a.size, regionAlign)
			n++
		}
	}
	return n
}

// Arena carves transient regions out of the engine's linear memory with the
// guarantee that every region acquired for a call is released on every exit
// path, including error returns and panics. Regions never escape the scope
// that requested them.
type Arena struct {
	alloc       tspice.Allocator
	outstanding atomic.Int64
}

// New creates an arena over the given allocator.
func New(alloc tspice.Allocator) *Arena {
	return &Arena{alloc: alloc}
}

// Outstanding reports the number of live allocations. It is zero between
// calls; the leak-free property tests probe it.
func (a *Arena) Outstanding() int {
	return int(a.outstanding.Load())
}

// WithAlloc allocates one region of size bytes, invokes fn with its pointer,
// and frees the region after fn returns or panics. fn's error is returned
// unchanged; result values travel through fn's closure.
func (a *Arena) WithAlloc(size uint32, fn func(ptr uint32) error) error {
	return a.WithAllocs([]uint32{size}, func(ptrs []uint32) error {
		return fn(ptrs[0])
	})
}

// WithAllocs allocates len(sizes) regions as one batch (same order as sizes),
// invokes fn with all pointers, and frees every region on any exit path.
// The batch total is checked against MaxCallBytes before any allocation; a
// zero-byte region is rejected as invalid input. If the Nth allocation fails,
// the prior N-1 are freed before the error returns.
func (a *Arena) WithAllocs(sizes []uint32, fn func(ptrs []uint32) error) error {
	if a.alloc == nil {
		return errors.NotInitialized("allocator")
	}
	if len(sizes) == 0 {
		return errors.InvalidInput(errors.PhaseValidate, "allocation batch must not be empty")
	}

	var total uint64
	for i, size := range sizes {
		if size == 0 {
			return errors.InvalidInput(errors.PhaseValidate, "allocation %d: size must be > 0", i)
		}
		total += uint64(size)
	}
	if total > MaxCallBytes {
		return errors.New(errors.PhaseValidate, errors.KindAllocation).
			Detail("call requests %d bytes, limit is %d", total, uint64(MaxCallBytes)).
			Build()
	}

	list := newAllocationList()
	ptrs := make([]uint32, len(sizes))

	for i, size := range sizes {
		ptr, err := a.alloc.Alloc(size, regionAlign)
		if err != nil || ptr == 0 {
			freed := list.free(a.alloc)
			a.outstanding.Add(-int64(freed))
			list.release()
			return errors.AllocationFailed(size, regionAlign, err)
		}
		list.add(ptr, size)
		a.outstanding.Add(1)
		ptrs[i] = ptr
	}

	defer func() {
		freed := list.free(a.alloc)
		a.outstanding.Add(-int64(freed))
		list.release()
	}()

	return fn(ptrs)
}
