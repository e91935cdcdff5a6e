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

func TestNewBundleConfig_Default(t *testing.T) {
	assert.Equal(t, entities.DefaultMaxVectorLength, newBundleConfig(nil).maxVectorLength)
	assert.Equal(t, 8, newBundleConfig([]BundleOption{WithMaxVectorLength(8)}).maxVectorLength)
}

func TestFittingBundle(t *testing.T) {
	handlers := FittingBundle(gonum.New()).Handlers()

	assert.Len(t, handlers, 1)
	assert.Contains(t, handlers, "polynomial_fit")
}

func TestQuadratureBundle(t *testing.T) {
	handlers := QuadratureBundle(gonum.New()).Handlers()

	assert.Len(t, handlers, 2)
	assert.Contains(t, handlers, "gauss_legendre")
	assert.Contains(t, handlers, "gauss_kronrod")
}

func TestNumericBundle(t *testing.T) {
	handlers := NumericBundle(gonum.New()).Handlers()

	assert.Len(t, handlers, 3)
	for _, name := range []string{"polynomial_fit", "gauss_legendre", "gauss_kronrod"} {
		assert.Contains(t, handlers, name)
	}
}

func TestWithBundle(t *testing.T) {
	reg, err := NewRegistry(WithBundle(NumericBundle(gonum.New())))
	require.NoError(t, err)

	assert.Equal(t, []string{"gauss_kronrod", "gauss_legendre", "polynomial_fit"}, reg.Names())
}

func TestWithBundle_Overlap(t *testing.T) {
	lib := gonum.New()
	_, err := NewRegistry(
		WithBundle(QuadratureBundle(lib)),
		WithBundle(NumericBundle(lib)),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate handler name")
}

func TestWithHandler(t *testing.T) {
	type scaleRequest struct {
		V      entities.Vector `json:"v"`
		Factor float64         `json:"factor"`
	}

	reg, err := NewRegistry(
		WithBundle(QuadratureBundle(gonum.New())),
		WithHandler("scale", func(ctx context.Context, req scaleRequest) entities.Vector {
			out := req.V.Clone()
			for i := range out {
				out[i] *= req.Factor
			}
			return out
		}),
	)
	require.NoError(t, err)
	assert.True(t, reg.Has("scale"))

	resp, err := reg.Invoke(context.Background(), "scale", []byte(`{"v":[1,2,3],"factor":2}`))
	require.NoError(t, err)

	var out entities.Vector
	require.NoError(t, json.Unmarshal(resp, &out))
	assert.Equal(t, entities.Vector{2, 4, 6}, out)
}

func TestBundle_MaxVectorLength(t *testing.T) {
	reg, err := NewRegistry(WithBundle(NumericBundle(gonum.New(), WithMaxVectorLength(4))))
	require.NoError(t, err)

	resp, err := reg.Invoke(context.Background(), "gauss_legendre", []byte(`{"n":5}`))
	require.NoError(t, err)

	errResp, ok := AsErrorResponse(resp)
	require.True(t, ok)
	assert.Equal(t, "LIMIT_EXCEEDED", errResp.Error)
	assert.Equal(t, "n length 5 exceeds limit 4", errResp.Message)
}
