package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/numbridge/application/validation"
)

// HostFunc is a generic function signature for host functions.
// It accepts a context and a typed request, and returns a typed response.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// HostFuncE is a HostFunc that can fail. Errors are mapped to an
// ErrorResponse with NewErrorFrom.
type HostFuncE[Req any, Resp any] func(context.Context, Req) (Resp, error)

// ByteHandler is a function that accepts raw bytes (JSON) and returns raw bytes (JSON).
// This is the common interface that WASM runtimes can easily use.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler wraps a typed HostFunc into a ByteHandler.
// It handles the JSON unmarshalling of the request, validates the request's
// `validate` struct tags and marshals the response. Malformed or invalid
// requests produce a VALIDATION_ERROR response rather than a Go error.
//
// Usage:
//
//	legendre := hostfuncs.NewJSONHandler(func(ctx context.Context, req hostfuncs.QuadratureRequest) entities.QuadratureRule {
//	    return lib.GaussLegendre(req.N)
//	})
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return NewJSONHandlerE(func(ctx context.Context, req Req) (Resp, error) {
		return fn(ctx, req), nil
	})
}

// NewJSONHandlerE wraps a fallible HostFuncE into a ByteHandler.
func NewJSONHandlerE[Req any, Resp any](fn HostFuncE[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewValidationError(fmt.Sprintf("failed to unmarshal request: %v", err)).ToJSON(), nil
		}

		if res := validation.StructResult(req); !res.Valid {
			return NewValidationError("invalid request", res.Errors...).ToJSON(), nil
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return NewErrorFrom(err).ToJSON(), nil
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return respBytes, nil
	}
}
