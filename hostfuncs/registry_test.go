package hostfuncs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
)

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Names())
}

func TestNewRegistry_WithByteHandler(t *testing.T) {
	echoHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return payload, nil
	}

	reg, err := NewRegistry(
		WithByteHandler("echo", echoHandler),
	)
	require.NoError(t, err)

	assert.True(t, reg.Has("echo"))
	assert.False(t, reg.Has("nonexistent"))
	assert.Equal(t, []string{"echo"}, reg.Names())
}

func TestNewRegistry_DuplicateHandler(t *testing.T) {
	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	_, err := NewRegistry(
		WithByteHandler("test", handler),
		WithByteHandler("test", handler), // duplicate
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate handler name")
}

func TestNewRegistry_EmptyName(t *testing.T) {
	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	_, err := NewRegistry(
		WithByteHandler("", handler),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestHandlerRegistry_Invoke(t *testing.T) {
	echoHandler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return append([]byte("echo:"), payload...), nil
	}

	reg, err := NewRegistry(
		WithByteHandler("echo", echoHandler),
	)
	require.NoError(t, err)

	t.Run("found handler", func(t *testing.T) {
		resp, err := reg.Invoke(context.Background(), "echo", []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "echo:hello", string(resp))
	})

	t.Run("not found handler", func(t *testing.T) {
		resp, err := reg.Invoke(context.Background(), "unknown", []byte("test"))
		require.NoError(t, err)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal(resp, &errResp))
		assert.Equal(t, "NOT_FOUND", errResp.Error)
		assert.Equal(t, 404, errResp.Code)
		assert.Contains(t, errResp.Message, "unknown")
	})
}

func TestHandlerRegistry_Names_Sorted(t *testing.T) {
	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, nil
	}

	reg, err := NewRegistry(
		WithByteHandler("zebra", handler),
		WithByteHandler("alpha", handler),
		WithByteHandler("middle", handler),
	)
	require.NoError(t, err)

	names := reg.Names()
	assert.Equal(t, []string{"alpha", "middle", "zebra"}, names)
}

func TestHandlerRegistry_Invoke_SetsHostContext(t *testing.T) {
	var capturedName string
	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		if hc, ok := ctx.(HostContext); ok {
			capturedName = hc.FunctionName()
		}
		return nil, nil
	}

	reg, err := NewRegistry(
		WithByteHandler("test_func", handler),
	)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "test_func", nil)
	require.NoError(t, err)
	assert.Equal(t, "test_func", capturedName)
}

func TestHandlerRegistry_Names_Copy(t *testing.T) {
	reg, err := NewRegistry(WithBundle(NumericBundle(gonum.New())))
	require.NoError(t, err)

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"gauss_kronrod", "gauss_legendre", "polynomial_fit"}, reg.Names())
}

func TestCall(t *testing.T) {
	reg, err := NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware()),
		WithBundle(NumericBundle(gonum.New())),
	)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("typed round trip", func(t *testing.T) {
		rule, err := Call[QuadratureRequest, entities.QuadratureRule](ctx, reg, "gauss_legendre", QuadratureRequest{N: 2})
		require.NoError(t, err)
		assert.Equal(t, entities.InfoOK, rule.Info)
		assert.Len(t, rule.Nodes, 2)
		assert.InDelta(t, 2.0, rule.Weights[0]+rule.Weights[1], 1e-12)
	})

	t.Run("error response becomes error", func(t *testing.T) {
		_, err := Call[QuadratureRequest, entities.QuadratureRule](ctx, reg, "gauss_legendre", QuadratureRequest{N: 0})
		require.Error(t, err)

		var respErr *ResponseError
		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, 400, respErr.Response.Code)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := Call[QuadratureRequest, entities.QuadratureRule](ctx, reg, "nope", QuadratureRequest{N: 1})

		var respErr *ResponseError
		require.ErrorAs(t, err, &respErr)
		assert.Equal(t, "NOT_FOUND", respErr.Response.Error)
	})

	t.Run("unmarshalable request", func(t *testing.T) {
		_, err := Call[chan int, entities.QuadratureRule](ctx, reg, "gauss_legendre", make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal gauss_legendre request")
	})
}
