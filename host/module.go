package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/numbridge/application/callback"
	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/domain/ports"
	"github.com/reglet-dev/numbridge/hostfuncs"
	hostwazero "github.com/reglet-dev/numbridge/infrastructure/wazero"
)

// Module is an instantiated guest. Calls into it are serialized.
type Module struct {
	module api.Module
	mu     sync.Mutex
}

// Name returns the guest's module name.
func (m *Module) Name() string {
	return m.module.Name()
}

// Close releases the guest instance.
func (m *Module) Close(ctx context.Context) error {
	return m.module.Close(ctx)
}

// Call invokes export with req encoded as JSON and decodes the guest's
// answer into resp. A guest answering with an ErrorResponse yields a
// *hostfuncs.ResponseError.
func (m *Module) Call(ctx context.Context, export string, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return &errors.WireFormatError{Operation: "marshal", Type: fmt.Sprintf("%T", req), Err: err}
	}

	data, err := m.CallRaw(ctx, export, payload)
	if err != nil {
		return err
	}

	if errResp, ok := hostfuncs.AsErrorResponse(data); ok {
		return errResp.Err()
	}
	if err := json.Unmarshal(data, resp); err != nil {
		return &errors.WireFormatError{Operation: "unmarshal", Type: fmt.Sprintf("%T", resp), Err: err}
	}
	return nil
}

// CallRaw writes payload into guest memory, invokes export with its packed
// ptr/len and returns a copy of the bytes the packed result points at. The
// response buffer is passed to the guest's deallocate export, if any, once
// copied.
func (m *Module) CallRaw(ctx context.Context, export string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.module.ExportedFunction(export)
	if f == nil {
		return nil, fmt.Errorf("export %q not found", export)
	}

	ptr, err := m.write(ctx, payload)
	if err != nil {
		return nil, err
	}

	results, err := f.Call(ctx, hostwazero.PackPtrLen(ptr, uint32(len(payload)))) //nolint:gosec // G115: bounded by guest memory
	if err != nil {
		return nil, fmt.Errorf("guest export %q failed: %w", export, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("guest export %q returned no result", export)
	}

	rptr, rlen := hostwazero.UnpackPtrLen(results[0])
	if rptr == 0 && rlen == 0 {
		return nil, fmt.Errorf("null response from guest export %q", export)
	}
	data, ok := m.module.Memory().Read(rptr, rlen)
	if !ok {
		return nil, fmt.Errorf("failed to read response from guest memory")
	}
	out := append([]byte(nil), data...)

	// The guest pins the response until the host hands it back.
	if dealloc := m.module.ExportedFunction("deallocate"); dealloc != nil {
		if _, err := dealloc.Call(ctx, uint64(rptr), uint64(rlen)); err != nil {
			return nil, fmt.Errorf("failed to release response in guest: %w", err)
		}
	}
	return out, nil
}

func (m *Module) write(ctx context.Context, payload []byte) (uint32, error) {
	allocate := m.module.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("guest does not export 'allocate'")
	}
	res, err := allocate.Call(ctx, uint64(len(payload)))
	if err != nil {
		return 0, fmt.Errorf("failed to allocate in guest: %w", err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("allocate returned no results")
	}
	ptr := uint32(res[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if !m.module.Memory().Write(ptr, payload) {
		return 0, fmt.Errorf("failed to write input to guest memory")
	}
	return ptr, nil
}

// CallbackRequest is what a guest callback export receives.
type CallbackRequest = hostfuncs.CallbackRequest

// CallbackResponse is what a guest callback export answers with.
type CallbackResponse = hostfuncs.CallbackResponse

// ValueFunc adapts a guest export into a value callback. The guest must
// answer with exactly one number.
func (m *Module) ValueFunc(ctx context.Context, export string) ports.ValueFunc {
	return func(c, x []float64) (float64, error) {
		values, err := m.evaluate(ctx, export, callback.ValueFunction, callback.ValueArity, c, x)
		if err != nil {
			return 0, err
		}
		return callback.ScalarResult(callback.ValueFunction, values)
	}
}

// GradFunc adapts a guest export into a gradient callback. The guest must
// answer with a number and an array of len(c) numbers.
func (m *Module) GradFunc(ctx context.Context, export string) ports.GradFunc {
	return func(c, x, grad []float64) (float64, error) {
		values, err := m.evaluate(ctx, export, callback.GradientFunction, callback.GradientArity, c, x)
		if err != nil {
			return 0, err
		}
		return callback.GradientResult(callback.GradientFunction, values, grad)
	}
}

func (m *Module) evaluate(ctx context.Context, export, function string, arity int, c, x []float64) ([]entities.HostValue, error) {
	var resp CallbackResponse
	if err := m.Call(ctx, export, CallbackRequest{C: c, X: x}, &resp); err != nil {
		return nil, &errors.CallbackError{Function: function, Err: err}
	}
	if err := callback.CheckArity(function, arity, len(resp.Values)); err != nil {
		return nil, err
	}
	return resp.Values, nil
}
