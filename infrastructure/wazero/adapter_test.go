package wazero

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/hostfuncs"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
	"github.com/reglet-dev/numbridge/internal/testutil"
	"github.com/reglet-dev/numbridge/log"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	assert.Equal(t, "numbridge_host", cfg.ModuleName)
	assert.EqualValues(t, hostfuncs.DefaultMaxRequestSize, cfg.MaxRequestSize)
	assert.NotNil(t, cfg.Logger)
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig()
	logger := slog.New(slog.DiscardHandler)

	WithModuleName("custom_module")(&cfg)
	WithMaxRequestSize(2048)(&cfg)
	WithCustomHandler(CustomHandler{Name: "test_handler"})(&cfg)
	WithLogger(logger)(&cfg)
	WithLogger(nil)(&cfg)

	assert.Equal(t, "custom_module", cfg.ModuleName)
	assert.EqualValues(t, 2048, cfg.MaxRequestSize)
	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "test_handler", cfg.CustomHandlers[0].Name)
	assert.Same(t, logger, cfg.Logger)
}

func TestPackUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		packed := PackPtrLen(tt.ptr, tt.length)
		gotPtr, gotLen := UnpackPtrLen(packed)

		assert.Equal(t, tt.ptr, gotPtr, "ptr of %x", packed)
		assert.Equal(t, tt.length, gotLen, "len of %x", packed)
	}
	assert.Equal(t, uint64(0x0000000A00000003), PackPtrLen(10, 3))
}

type guestFixture struct {
	ctx  context.Context
	mod  api.Module
	logs *bytes.Buffer
}

func newGuestFixture(t *testing.T, opts ...AdapterOption) *guestFixture {
	t.Helper()
	ctx := context.Background()

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
		hostfuncs.WithBundle(hostfuncs.NumericBundle(gonum.New())),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	opts = append([]AdapterOption{WithLogger(logger), WithCustomHandler(LogMessageHandler(logger))}, opts...)
	require.NoError(t, RegisterWithRuntime(ctx, rt, reg, opts...))

	mod, err := rt.InstantiateWithConfig(ctx,
		testutil.GuestModule(cfg.ModuleName, nil),
		wazero.NewModuleConfig().WithName("guest"))
	require.NoError(t, err)

	return &guestFixture{ctx: ctx, mod: mod, logs: &buf}
}

// call writes payload into guest memory, invokes export and returns the
// bytes the packed result points at.
func (g *guestFixture) call(t *testing.T, export string, payload []byte) []byte {
	t.Helper()

	res, err := g.mod.ExportedFunction("allocate").Call(g.ctx, uint64(len(payload)))
	require.NoError(t, err)
	ptr := uint32(res[0])
	require.True(t, g.mod.Memory().Write(ptr, payload))

	out, err := g.mod.ExportedFunction(export).Call(g.ctx, packPtrLen(ptr, uint32(len(payload))))
	require.NoError(t, err)
	if len(out) == 0 {
		return nil
	}

	rptr, rlen := unpackPtrLen(out[0])
	data, ok := g.mod.Memory().Read(rptr, rlen)
	require.True(t, ok)
	return append([]byte(nil), data...)
}

func TestRegisterWithRuntime_HostCall(t *testing.T) {
	g := newGuestFixture(t)

	resp := g.call(t, testutil.GuestLegendre, []byte(`{"n":2}`))

	var rule entities.QuadratureRule
	require.NoError(t, json.Unmarshal(resp, &rule))
	assert.Equal(t, entities.InfoOK, rule.Info)
	testutil.AssertVectorInDelta(t, []float64{-1 / math.Sqrt(3), 1 / math.Sqrt(3)}, rule.Nodes, 1e-14)
	testutil.AssertVectorInDelta(t, []float64{1, 1}, rule.Weights, 1e-14)
}

func TestRegisterWithRuntime_ErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		opts    []AdapterOption
		payload string
		wantMsg string
	}{
		{
			name:    "invalid request",
			payload: `{"n":0}`,
			wantMsg: "invalid request",
		},
		{
			name:    "malformed JSON",
			payload: `{"n":`,
			wantMsg: "failed to unmarshal request",
		},
		{
			name:    "request too large",
			opts:    []AdapterOption{WithMaxRequestSize(4)},
			payload: `{"n":2}`,
			wantMsg: "request size 7 exceeds maximum 4 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGuestFixture(t, tt.opts...)

			errResp, ok := hostfuncs.AsErrorResponse(g.call(t, testutil.GuestLegendre, []byte(tt.payload)))
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", errResp.Error)
			assert.Contains(t, errResp.Message, tt.wantMsg)
		})
	}
}

func TestRegisterWithRuntime_ModuleName(t *testing.T) {
	g := newGuestFixture(t, WithModuleName("alt_host"))

	var rule entities.QuadratureRule
	require.NoError(t, json.Unmarshal(g.call(t, testutil.GuestLegendre, []byte(`{"n":1}`)), &rule))
	assert.Equal(t, entities.InfoOK, rule.Info)
	testutil.AssertVectorInDelta(t, []float64{2}, rule.Weights, 1e-14)
}

func TestLogMessageHandler(t *testing.T) {
	g := newGuestFixture(t)

	wire := log.NewMessage("", slog.LevelWarn, "from guest", slog.Int("step", 3))
	payload, err := json.Marshal(wire)
	require.NoError(t, err)

	g.call(t, testutil.GuestLog, payload)

	out := g.logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="from guest"`)
	assert.Contains(t, out, "source=guest")
	assert.Contains(t, out, "step=3")
}

func TestLogMessageHandler_Malformed(t *testing.T) {
	g := newGuestFixture(t)

	g.call(t, testutil.GuestLog, []byte("not json"))

	assert.Contains(t, g.logs.String(), "wazero: malformed log message")
}
