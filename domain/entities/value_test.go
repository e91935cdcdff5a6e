package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ValueKind
		wantType string
	}{
		{name: "number", input: `2.5`, wantKind: KindScalar, wantType: "number"},
		{name: "negative exponent", input: `-1e-3`, wantKind: KindScalar, wantType: "number"},
		{name: "array", input: `[1, 2, 3]`, wantKind: KindArray, wantType: "array"},
		{name: "empty array", input: `[]`, wantKind: KindArray, wantType: "array"},
		{name: "mixed array", input: `[1, "a"]`, wantKind: KindInvalid, wantType: "array"},
		{name: "array with null", input: `[null, 2]`, wantKind: KindInvalid, wantType: "array"},
		{name: "array of nulls", input: `[null]`, wantKind: KindInvalid, wantType: "array"},
		{name: "object", input: `{"a": 1}`, wantKind: KindInvalid, wantType: "object"},
		{name: "string", input: `"1.0"`, wantKind: KindInvalid, wantType: "string"},
		{name: "bool", input: `true`, wantKind: KindInvalid, wantType: "boolean"},
		{name: "null", input: `null`, wantKind: KindInvalid, wantType: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v HostValue
			require.NoError(t, json.Unmarshal([]byte(tt.input), &v))
			assert.Equal(t, tt.wantKind, v.Kind)
			assert.Equal(t, tt.wantType, v.Type)
		})
	}
}

func TestHostValue_InSlice(t *testing.T) {
	var resp struct {
		Values []HostValue `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"values":[10, [0.5, 1.5]]}`), &resp))
	require.Len(t, resp.Values, 2)
	assert.Equal(t, 10.0, resp.Values[0].Scalar)
	assert.Equal(t, Vector{0.5, 1.5}, resp.Values[1].Array)
}

func TestHostValue_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]HostValue{Scalar(1.5), Array(Vector{1, 2}), Array(nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, [1, 2], []]`, string(data))

	_, err = json.Marshal(Invalid("table"))
	assert.Error(t, err)
}

func TestValueKind_String(t *testing.T) {
	assert.Equal(t, "scalar", KindScalar.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "invalid", KindInvalid.String())
}
