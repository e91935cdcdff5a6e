package hostfuncs

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"slices"
)

// HandlerRegistry maps host function names to handlers with their
// middleware already applied. It is built once by NewRegistry and never
// changes, so lookups need no locking.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	names    []string
}

type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errs       []error
}

// NewRegistry builds a registry from options. Every duplicate or empty
// handler name is reported in the returned error.
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(NumericBundle(gonum.New())),
//	    WithHandler("custom", customHandler),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if err := stdErrors.Join(b.errs...); err != nil {
		return nil, err
	}

	r := &HandlerRegistry{
		handlers: make(map[string]ByteHandler, len(b.handlers)),
		names:    make([]string, 0, len(b.handlers)),
	}
	for name, h := range b.handlers {
		r.handlers[name] = b.wrap(h)
		r.names = append(r.names, name)
	}
	slices.Sort(r.names)
	return r, nil
}

// wrap applies middleware so the first registered runs outermost.
func (b *registryBuilder) wrap(h ByteHandler) ByteHandler {
	for _, mw := range slices.Backward(b.middleware) {
		h = mw(h)
	}
	return h
}

func (b *registryBuilder) add(name string, h ByteHandler) {
	switch {
	case name == "":
		b.errs = append(b.errs, fmt.Errorf("handler name cannot be empty"))
	case b.handlers[name] != nil:
		b.errs = append(b.errs, fmt.Errorf("duplicate handler name: %q", name))
	default:
		b.handlers[name] = h
	}
}

// Invoke runs the named handler with payload. Unknown names answer with a
// NOT_FOUND ErrorResponse rather than an error, so guests always get JSON.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	h, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name).ToJSON(), nil
	}
	return h(HostContextFrom(ctx, name), payload)
}

// Has reports whether name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *HandlerRegistry) Names() []string {
	return slices.Clone(r.names)
}

// WithByteHandler registers a raw handler. Prefer WithHandler for JSON
// request/response types.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		b.add(name, handler)
	}
}

// WithMiddleware appends middleware. The first added wraps outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// Call invokes a registered host function in-process with a typed request.
// An ErrorResponse answer is returned as a *ResponseError.
func Call[Req any, Resp any](ctx context.Context, r *HandlerRegistry, name string, req Req) (Resp, error) {
	var resp Resp

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("failed to marshal %s request: %w", name, err)
	}

	out, err := r.Invoke(ctx, name, payload)
	if err != nil {
		return resp, err
	}
	if errResp, ok := AsErrorResponse(out); ok {
		return resp, errResp.Err()
	}

	if err := json.Unmarshal(out, &resp); err != nil {
		return resp, fmt.Errorf("failed to unmarshal %s response: %w", name, err)
	}
	return resp, nil
}
