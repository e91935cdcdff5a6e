package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	panicHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
		panic("test panic")
	}

	wrapped := PanicRecoveryMiddleware()(panicHandler)

	resp, err := wrapped(context.Background(), []byte("{}"))
	require.NoError(t, err)

	errResp, ok := AsErrorResponse(resp)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR", errResp.Error)
	assert.Equal(t, 500, errResp.Code)
	assert.Equal(t, "panic: test panic", errResp.Message)
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	normalHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{"info":1}`), nil
	}

	wrapped := PanicRecoveryMiddleware()(normalHandler)

	resp, err := wrapped(context.Background(), []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, `{"info":1}`, string(resp))
}

func TestMiddlewareOrder_FIFO(t *testing.T) {
	var callOrder []string

	tracer := func(name string) Middleware {
		return func(next ByteHandler) ByteHandler {
			return func(ctx context.Context, payload []byte) ([]byte, error) {
				callOrder = append(callOrder, name+"-before")
				resp, err := next(ctx, payload)
				callOrder = append(callOrder, name+"-after")
				return resp, err
			}
		}
	}

	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		callOrder = append(callOrder, "handler")
		return nil, nil
	}

	reg, err := NewRegistry(
		WithMiddleware(tracer("mw1"), tracer("mw2")),
		WithMiddleware(tracer("mw3")),
		WithByteHandler("test", handler),
	)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "test", nil)
	require.NoError(t, err)

	expected := []string{
		"mw1-before", "mw2-before", "mw3-before",
		"handler",
		"mw3-after", "mw2-after", "mw1-after",
	}
	assert.Equal(t, expected, callOrder)
}

func TestMiddleware_AppliesToAllHandlers(t *testing.T) {
	handlerCalls := make(map[string]bool)

	trackingMiddleware := func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if hc, ok := ctx.(HostContext); ok {
				handlerCalls[hc.FunctionName()] = true
			}
			return next(ctx, payload)
		}
	}

	noop := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	reg, err := NewRegistry(
		WithMiddleware(trackingMiddleware),
		WithByteHandler("handler1", noop),
		WithByteHandler("handler2", noop),
	)
	require.NoError(t, err)

	_, _ = reg.Invoke(context.Background(), "handler1", nil)
	_, _ = reg.Invoke(context.Background(), "handler2", nil)

	assert.True(t, handlerCalls["handler1"])
	assert.True(t, handlerCalls["handler2"])
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		handler  ByteHandler
		wantErr  bool
		contains []string
	}{
		{
			name: "success logs at debug",
			handler: func(ctx context.Context, payload []byte) ([]byte, error) {
				return []byte(`{"info":1}`), nil
			},
			contains: []string{"level=DEBUG", `msg="host function completed"`, "function=test", "response_bytes=10"},
		},
		{
			name: "error response logs at warn",
			handler: func(ctx context.Context, payload []byte) ([]byte, error) {
				return NewValidationError("invalid request").ToJSON(), nil
			},
			contains: []string{"level=WARN", `msg="host function returned error"`, "error=VALIDATION_ERROR"},
		},
		{
			name: "go error logs at warn",
			handler: func(ctx context.Context, payload []byte) ([]byte, error) {
				return nil, errors.New("memory read failed")
			},
			wantErr:  true,
			contains: []string{"level=WARN", `msg="host function failed"`, `error="memory read failed"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			reg, err := NewRegistry(
				WithMiddleware(LoggingMiddleware(logger)),
				WithByteHandler("test", tt.handler),
			)
			require.NoError(t, err)

			_, err = reg.Invoke(context.Background(), "test", []byte(`{}`))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestLoggingMiddleware_PlainContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	wrapped := LoggingMiddleware(logger)(func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{}`), nil
	})

	_, err := wrapped(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "function=unknown")
}
