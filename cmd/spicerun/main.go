package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/spice"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to engine wasm file")
		kernels     = flag.String("kernel", "", "Kernel files to furnish (comma-separated)")
		opName      = flag.String("op", "", "Operation to run")
		opArgs      = flag.String("args", "", "Operation arguments (comma-separated)")
		cacheDir    = flag.String("cache-dir", "", "Compilation cache directory")
		maxPages    = flag.Uint("max-pages", 0, "Memory limit in 64KB pages (0 = default)")
		list        = flag.Bool("list", false, "List operations and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *list {
		listOperations()
		return
	}

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: spicerun -wasm <engine.wasm> [-kernel k1,k2] -op name [-args a,b,c]")
		fmt.Fprintln(os.Stderr, "       spicerun -wasm <engine.wasm> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       spicerun -list")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		engine.SetLogger(log)
	}
	defer log.Sync()

	cfg := &engine.Config{
		MemoryLimitPages: uint32(*maxPages),
		CacheDir:         *cacheDir,
	}

	if *interactive {
		if err := runInteractive(*wasmFile, *kernels, cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *kernels, *opName, *opArgs, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listOperations() {
	fmt.Println("Operations:")
	for _, op := range operations {
		var params []string
		for _, p := range op.params {
			params = append(params, p.name+": "+p.typ)
		}
		fmt.Printf("  %s(%s)  %s\n", op.name, strings.Join(params, ", "), op.about)
	}
}

// newBackend loads the engine module, instantiates it and furnishes any
// requested kernels.
func newBackend(ctx context.Context, wasmFile, kernels string, cfg *engine.Config, log *zap.Logger) (*spice.Backend, func(), error) {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read engine: %w", err)
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	mod, err := eng.Load(ctx, data)
	if err != nil {
		eng.Close(ctx)
		return nil, nil, err
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		eng.Close(ctx)
		return nil, nil, err
	}
	cleanup := func() {
		inst.Close(ctx)
		eng.Close(ctx)
	}

	b := spice.New(inst, spice.WithLogger(log))
	if kernels != "" {
		for _, k := range strings.Split(kernels, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if err := b.Furnsh(ctx, k); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("furnish %s: %w", k, err)
			}
			log.Info("furnished kernel", zap.String("path", k))
		}
	}
	return b, cleanup, nil
}

func run(wasmFile, kernels, opName, opArgs string, cfg *engine.Config, log *zap.Logger) error {
	if opName == "" {
		return fmt.Errorf("no operation given, use -op (see -list)")
	}
	op, ok := findOperation(opName)
	if !ok {
		return fmt.Errorf("unknown operation %q (see -list)", opName)
	}

	var args []string
	if opArgs != "" {
		args = strings.Split(opArgs, ",")
	}
	if len(args) != len(op.params) {
		return fmt.Errorf("%s takes %d arguments, got %d", op.name, len(op.params), len(args))
	}

	ctx := context.Background()
	b, cleanup, err := newBackend(ctx, wasmFile, kernels, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := op.run(ctx, b, args)
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	fmt.Println(result)
	return nil
}
