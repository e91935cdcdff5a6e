package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics and converts
// them to structured ErrorResponse JSON instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = NewPanicError(r).ToJSON()
					err = nil // Return JSON error, not Go error
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host function invocations
// at debug level, and failures (Go errors or error responses) at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			elapsed := time.Since(start)

			switch {
			case err != nil:
				logger.WarnContext(ctx, "host function failed", "function", funcName, "error", err, "duration", elapsed)
			default:
				if e, isErr := AsErrorResponse(resp); isErr {
					logger.WarnContext(ctx, "host function returned error", "function", funcName, "error", e.Error, "message", e.Message, "duration", elapsed)
				} else {
					logger.DebugContext(ctx, "host function completed", "function", funcName, "request_bytes", len(payload), "response_bytes", len(resp), "duration", elapsed)
				}
			}
			return resp, err
		}
	}
}
