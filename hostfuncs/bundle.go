package hostfuncs

import (
	"context"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/ports"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once for common use cases.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

// staticBundle implements HostFuncBundle with a fixed set of handlers.
type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// BundleOption configures a bundle.
type BundleOption func(*bundleConfig)

type bundleConfig struct {
	maxVectorLength int
}

// WithMaxVectorLength caps vector lengths accepted by the bundle's handlers.
// Zero disables the cap.
func WithMaxVectorLength(n int) BundleOption {
	return func(c *bundleConfig) {
		c.maxVectorLength = n
	}
}

// FittingBundle returns a bundle with curve fitting host functions:
// polynomial_fit.
func FittingBundle(lib ports.PolynomialFitter, opts ...BundleOption) HostFuncBundle {
	cfg := newBundleConfig(opts)
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"polynomial_fit": NewJSONHandlerE(func(ctx context.Context, req PolynomialFitRequest) (PolynomialFitResponse, error) {
				return PerformPolynomialFit(ctx, lib, cfg.maxVectorLength, req)
			}),
		},
	}
}

// QuadratureBundle returns a bundle with quadrature rule host functions:
// gauss_legendre, gauss_kronrod.
func QuadratureBundle(lib ports.QuadratureGenerator, opts ...BundleOption) HostFuncBundle {
	cfg := newBundleConfig(opts)
	return &staticBundle{
		handlers: map[string]ByteHandler{
			"gauss_legendre": NewJSONHandlerE(func(ctx context.Context, req QuadratureRequest) (entities.QuadratureRule, error) {
				return PerformGaussLegendre(ctx, lib, cfg.maxVectorLength, req)
			}),
			"gauss_kronrod": NewJSONHandlerE(func(ctx context.Context, req QuadratureRequest) (entities.QuadratureRule, error) {
				return PerformGaussKronrod(ctx, lib, cfg.maxVectorLength, req)
			}),
		},
	}
}

func newBundleConfig(opts []BundleOption) bundleConfig {
	cfg := bundleConfig{maxVectorLength: DefaultMaxVectorLength}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers() {
			result[name] = handler
		}
	}
	return result
}

// NumericBundle returns a bundle containing every numeric host function.
// Includes: polynomial_fit, gauss_legendre, gauss_kronrod.
func NumericBundle(lib ports.Library, opts ...BundleOption) HostFuncBundle {
	return &compositeBundle{
		bundles: []HostFuncBundle{
			FittingBundle(lib, opts...),
			QuadratureBundle(lib, opts...),
		},
	}
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			b.add(name, handler)
		}
	}
}

// WithHandler registers a typed host function through NewJSONHandler.
//
//	WithHandler("integrate", func(ctx context.Context, req IntegrateRequest) IntegrateResponse {
//	    return integrate(req)
//	})
func WithHandler[Req any, Resp any](name string, fn HostFunc[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		b.add(name, NewJSONHandler(fn))
	}
}
