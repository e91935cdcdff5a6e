package host

import (
	"log/slog"

	"github.com/reglet-dev/numbridge/hostfuncs"
	hostwazero "github.com/reglet-dev/numbridge/infrastructure/wazero"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions configures the executor with a host function registry.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the logger used for guest log records and ABI failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAdapterOptions passes options through to the wazero adapter, e.g.
// a custom host module name or request size cap.
func WithAdapterOptions(opts ...hostwazero.AdapterOption) Option {
	return func(e *Executor) {
		e.adapterOpts = append(e.adapterOpts, opts...)
	}
}
