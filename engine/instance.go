package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	tspice "github.com/rybosome/tspice-sub002"
	"github.com/rybosome/tspice-sub002/errors"
)

// Session is the surface the call wrappers need from a live engine: entry
// point invocation plus access to linear memory and the guest heap. Instance
// implements it; tests substitute fakes.
type Session interface {
	// Call invokes the named entry point and returns its status code
	// (0 = success). Pointer arguments travel as uint32 values, doubles as
	// their IEEE 754 bit patterns.
	Call(ctx context.Context, name string, args ...uint64) (int32, error)
	Memory() tspice.Memory
	Allocator() tspice.Allocator
}

// Instance is a live engine module. It is stateful and single-threaded:
// callers must serialize all calls. See the package documentation.
type Instance struct {
	mod   api.Module
	mem   *wasmMemory
	alloc *guestAllocator
	funcs map[string]api.Function
}

func newInstance(mod api.Module) (*Instance, error) {
	mem := mod.Memory()
	if mem == nil {
		_ = mod.Close(context.Background())
		return nil, errors.Load("engine module exports no memory", nil)
	}

	inst := &Instance{
		mod:   mod,
		mem:   &wasmMemory{mem: mem},
		funcs: make(map[string]api.Function, len(EntryPoints)),
	}

	// Resolve the closed entry point table up front; a missing heap export
	// is fatal, a missing tspice_* export surfaces on first use.
	for _, name := range EntryPoints {
		if fn := mod.ExportedFunction(name); fn != nil {
			inst.funcs[name] = fn
		}
	}

	mallocFn, freeFn := inst.funcs[FnMalloc], inst.funcs[FnFree]
	if mallocFn == nil || freeFn == nil {
		_ = mod.Close(context.Background())
		return nil, errors.Load("engine module does not export malloc/free", nil)
	}
	inst.alloc = &guestAllocator{mallocFn: mallocFn, freeFn: freeFn}

	return inst, nil
}

// Call invokes an exported entry point by name and returns its status code.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) (int32, error) {
	fn, ok := i.funcs[name]
	if !ok {
		return 0, errors.NotFound(errors.PhaseCall, "entry point", name)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseCall, errors.KindEngineFailure, err, "invoke "+name)
	}
	if len(results) == 0 {
		return 0, errors.InvalidInput(errors.PhaseCall, "entry point %s returned no status code", name)
	}
	return int32(results[0]), nil
}

// Memory returns the bounds-checked linear memory adapter.
func (i *Instance) Memory() tspice.Memory {
	return i.mem
}

// Allocator returns the guest heap adapter backed by the module's
// malloc/free exports.
func (i *Instance) Allocator() tspice.Allocator {
	return i.alloc
}

func (i *Instance) Close(ctx context.Context) error {
	if i.mod == nil {
		return nil
	}
	err := i.mod.Close(ctx)
	i.mod = nil
	i.funcs = nil
	i.mem = nil
	i.alloc = nil
	return err
}

var _ Session = (*Instance)(nil)

// guestAllocator implements tspice.Allocator using the module's malloc/free
// exports. Emscripten's malloc returns 8-byte aligned blocks, which covers
// every alignment the codec needs, so align is not forwarded.
type guestAllocator struct {
	mallocFn api.Function
	freeFn   api.Function
	stackBuf [1]uint64
	mu       sync.Mutex
}

func (a *guestAllocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stackBuf[0] = uint64(size)
	if err := a.mallocFn.CallWithStack(context.Background(), a.stackBuf[:1]); err != nil {
		return 0, err
	}
	if a.stackBuf[0] == 0 {
		return 0, fmt.Errorf("malloc(%d) returned null", size)
	}
	return uint32(a.stackBuf[0]), nil
}

func (a *guestAllocator) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stackBuf[0] = uint64(ptr)
	if err := a.freeFn.CallWithStack(context.Background(), a.stackBuf[:1]); err != nil {
		Logger().Warn("free failed in guest heap",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

// wasmMemory wraps wazero memory to implement tspice.Memory
type wasmMemory struct {
	mem api.Memory
}

func (m *wasmMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *wasmMemory) Write(offset uint32, data []byte) error {
	ok := m.mem.Write(offset, data)
	if !ok {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *wasmMemory) ReadU8(offset uint32) (uint8, error) {
	data, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (m *wasmMemory) ReadU16(offset uint32) (uint16, error) {
	data, err := m.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

func (m *wasmMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *wasmMemory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *wasmMemory) WriteU8(offset uint32, value uint8) error {
	return m.Write(offset, []byte{value})
}

func (m *wasmMemory) WriteU16(offset uint32, value uint16) error {
	return m.Write(offset, []byte{byte(value), byte(value >> 8)})
}

func (m *wasmMemory) WriteU32(offset uint32, value uint32) error {
	ok := m.mem.WriteUint32Le(offset, value)
	if !ok {
		return fmt.Errorf("write out of bounds")
	}
	return nil
}

func (m *wasmMemory) WriteU64(offset uint32, value uint64) error {
	ok := m.mem.WriteUint64Le(offset, value)
	if !ok {
		return fmt.Errorf("write out of bounds")
	}
	return nil
}

func (m *wasmMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time checks that wasmMemory implements tspice.Memory and MemorySizer
var _ tspice.Memory = (*wasmMemory)(nil)
var _ tspice.MemorySizer = (*wasmMemory)(nil)

var _ tspice.Allocator = (*guestAllocator)(nil)
