package guest

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/hostfuncs"
	"github.com/reglet-dev/numbridge/log"
)

// decodeResponse decodes a host function answer, turning an ErrorResponse
// into a *hostfuncs.ResponseError.
func decodeResponse[Resp any](name string, data []byte) (Resp, error) {
	var resp Resp
	if len(data) == 0 {
		return resp, &errors.WireFormatError{Operation: "unmarshal", Type: name, Err: fmt.Errorf("empty response")}
	}
	if errResp, ok := hostfuncs.AsErrorResponse(data); ok {
		return resp, errResp.Err()
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, &errors.WireFormatError{Operation: "unmarshal", Type: name, Err: err}
	}
	return resp, nil
}

func encodeRequest(name string, req any) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &errors.WireFormatError{Operation: "marshal", Type: name, Err: err}
	}
	return data, nil
}

// HandleValue answers a value callback request with fn(c, x).
func HandleValue(req []byte, fn func(c, x []float64) float64) []byte {
	var cb hostfuncs.CallbackRequest
	if err := json.Unmarshal(req, &cb); err != nil {
		return errorJSON(hostfuncs.NewValidationError("invalid callback request: " + err.Error()))
	}
	return responseJSON(entities.Scalar(fn(cb.C, cb.X)))
}

// HandleGradient answers a gradient callback request. fn fills grad, which
// has len(c) elements, and returns the model value.
func HandleGradient(req []byte, fn func(c, x, grad []float64) float64) []byte {
	var cb hostfuncs.CallbackRequest
	if err := json.Unmarshal(req, &cb); err != nil {
		return errorJSON(hostfuncs.NewValidationError("invalid callback request: " + err.Error()))
	}
	grad := make([]float64, len(cb.C))
	v := fn(cb.C, cb.X, grad)
	return responseJSON(entities.Scalar(v), entities.Array(grad))
}

func responseJSON(values ...entities.HostValue) []byte {
	data, err := json.Marshal(hostfuncs.CallbackResponse{Values: values})
	if err != nil {
		return errorJSON(hostfuncs.NewInternalError(err.Error()))
	}
	return data
}

func errorJSON(resp hostfuncs.ErrorResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"error":"INTERNAL_ERROR","message":"failed to encode error","code":500}`)
	}
	return data
}

func logMessageJSON(level slog.Level, msg string, attrs []slog.Attr) []byte {
	data, err := json.Marshal(log.NewMessage("", level, msg, attrs...))
	if err != nil {
		return nil
	}
	return data
}
