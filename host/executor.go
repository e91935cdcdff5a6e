package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/reglet-dev/numbridge/domain/ports"
	"github.com/reglet-dev/numbridge/hostfuncs"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
	hostwazero "github.com/reglet-dev/numbridge/infrastructure/wazero"
)

// Executor manages a wazero runtime and the guests loaded into it.
type Executor struct {
	runtime     wazero.Runtime
	registry    *hostfuncs.HandlerRegistry
	logger      *slog.Logger
	adapterOpts []hostwazero.AdapterOption
}

// NewExecutor creates a new executor with the given options. Without
// WithHostFunctions the numeric bundle backed by gonum is registered.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(e.logger)),
			hostfuncs.WithBundle(hostfuncs.NumericBundle(gonum.New(gonum.WithLogger(e.logger)))),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	adapterOpts := append([]hostwazero.AdapterOption{
		hostwazero.WithLogger(e.logger),
		hostwazero.WithCustomHandler(hostwazero.LogMessageHandler(e.logger)),
	}, e.adapterOpts...)
	if err := hostwazero.RegisterWithRuntime(ctx, rt, e.registry, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor and all loaded modules.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadModule instantiates a WASM guest under name. An "_initialize" export
// (WASI reactor) is run before returning.
func (e *Executor) LoadModule(ctx context.Context, name string, wasmBytes []byte) (*Module, error) {
	cfg := wazero.NewModuleConfig().WithName(name).WithStartFunctions()
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.logger.DebugContext(ctx, "guest loaded", "guest", name)
	return &Module{module: mod}, nil
}

// RunModule instantiates a WASI command and runs its "_start" export to
// completion. A zero exit code is not an error.
func (e *Executor) RunModule(ctx context.Context, name string, wasmBytes []byte, cfg wazero.ModuleConfig) error {
	if cfg == nil {
		cfg = wazero.NewModuleConfig()
	}
	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, cfg.WithName(name))
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
			return nil
		}
		return fmt.Errorf("failed to run module %s: %w", name, err)
	}
	return mod.Close(ctx)
}

// Fit runs fit with guest exports as its callbacks. gradExport may be
// empty for fitters that differentiate numerically.
func (e *Executor) Fit(ctx context.Context, mod *Module, fit ports.NonlinearFitter, valueExport, gradExport string) error {
	var grad ports.GradFunc
	if gradExport != "" {
		grad = mod.GradFunc(ctx, gradExport)
	}

	n, m, k := fit.Dimensions()
	e.logger.DebugContext(ctx, "guest fit", "guest", mod.Name(), "points", n, "dims", m, "params", k,
		"func", valueExport, "grad", gradExport)

	return fit.Fit(ctx, mod.ValueFunc(ctx, valueExport), grad)
}
