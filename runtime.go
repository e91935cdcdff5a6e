// Package numbridge embeds a Lua interpreter with the numbridge module
// preloaded, so scripts can call polynomial fitting, Gauss quadrature rule
// generation and nonlinear least-squares fitting with Lua callbacks.
//
//	rt, err := numbridge.NewRuntime()
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//	err = rt.DoString(ctx, `
//	    local nb = require("numbridge")
//	    local info, c, rep = nb.polynomialfit({0, 1, 2}, {1, 3, 5}, 2)
//	`)
package numbridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/application/config"
	"github.com/reglet-dev/numbridge/bridge"
	"github.com/reglet-dev/numbridge/domain/ports"
)

// Runtime is a Lua state with the numbridge module available to require.
// A Runtime is not safe for concurrent use; run independent scripts in
// independent runtimes.
type Runtime struct {
	L       *lua.LState
	options *config.Options
	logger  *slog.Logger
}

// RuntimeOption configures NewRuntime.
type RuntimeOption func(*runtimeConfig)

type runtimeConfig struct {
	options   *config.Options
	logger    *slog.Logger
	lib       ports.Library
	logOutput io.Writer
}

// WithOptions sets the host options (default: config.Default()).
func WithOptions(opts *config.Options) RuntimeOption {
	return func(c *runtimeConfig) {
		c.options = opts
	}
}

// WithLogger sets the logger directly instead of building one from the
// options.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(c *runtimeConfig) {
		c.logger = logger
	}
}

// WithLogOutput sets where the logger built from the options writes
// (default: os.Stderr).
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(c *runtimeConfig) {
		c.logOutput = w
	}
}

// WithLibrary replaces the numerical library.
func WithLibrary(lib ports.Library) RuntimeOption {
	return func(c *runtimeConfig) {
		c.lib = lib
	}
}

// NewRuntime creates a Lua state and preloads the numbridge module.
func NewRuntime(opts ...RuntimeOption) (*Runtime, error) {
	cfg := runtimeConfig{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.options == nil {
		cfg.options = config.Default()
	}
	if err := cfg.options.Validate(); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		logger, err := cfg.options.Logger(cfg.logOutput)
		if err != nil {
			return nil, err
		}
		cfg.logger = logger
	}

	o := cfg.options
	moduleOpts := []bridge.Option{
		bridge.WithLogger(cfg.logger),
		bridge.WithMaxVectorLength(o.MaxVectorLength),
		bridge.WithLSFitDefaults(bridge.LSFitDefaults{
			EpsF:          o.LSFit.EpsF,
			EpsX:          o.LSFit.EpsX,
			MaxIterations: o.LSFit.MaxIterations,
			DiffStep:      o.LSFit.DiffStep,
		}),
	}
	if cfg.lib != nil {
		moduleOpts = append(moduleOpts, bridge.WithLibrary(cfg.lib))
	}

	L := lua.NewState()
	bridge.Preload(L, moduleOpts...)

	return &Runtime{L: L, options: o, logger: cfg.logger}, nil
}

// DoString runs a Lua chunk. ctx cancels the script between instructions.
func (r *Runtime) DoString(ctx context.Context, src string) error {
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	return r.L.DoString(src)
}

// DoFile runs a Lua script file.
func (r *Runtime) DoFile(ctx context.Context, path string) error {
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Options returns the options the runtime was created with.
func (r *Runtime) Options() *config.Options {
	return r.options
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.L.Close()
}
