package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/rybosome/tspice-sub002/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// CacheDir enables a persistent compilation cache when non-empty.
	// Compiling the engine module is expensive; the cache makes repeat
	// startups near-instant.
	CacheDir string
}

// Engine owns the wazero runtime that hosts the engine module.
type Engine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// New creates a wazero-backed engine. cfg may be nil for defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CacheDir != "" {
			cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
			if err != nil {
				return nil, errors.Load("create compilation cache", err)
			}
			runtimeCfg = runtimeCfg.WithCompilationCache(cache)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &Engine{runtime: runtime}, nil
}

// Load compiles the engine wasm binary.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile engine module", err)
	}
	return &Module{engine: e, compiled: compiled}, nil
}

func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// initWASI instantiates the WASI preview1 singleton for this engine's
// runtime. The emscripten-built module imports wasi_snapshot_preview1 for
// its synchronous file I/O. Safe for concurrent calls from multiple modules
// sharing the same engine.
func (e *Engine) initWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module("wasi_snapshot_preview1") != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
		if e.runtime.Module("wasi_snapshot_preview1") == nil {
			return errors.Load("instantiate WASI", err)
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// Module is a compiled engine module
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates a runnable engine instance. The module's initializer
// is run if it exports one ("_initialize", the emscripten reactor
// convention).
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if err := m.engine.initWASI(ctx); err != nil {
		return nil, err
	}

	modCfg := wazero.NewModuleConfig().
		WithName("tspice").
		WithStartFunctions() // initializer invoked explicitly below

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate engine module", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, errors.Load("run module initializer", err)
		}
	}

	return newInstance(mod)
}
