package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ValueKind discriminates HostValue.
type ValueKind uint8

const (
	// KindInvalid marks a host value that is neither a number nor a numeric array.
	KindInvalid ValueKind = iota
	KindScalar
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// HostValue is a value returned by a host-defined callback after it has been
// classified at the bridge boundary.
type HostValue struct {
	// Type is the host's own name for the value's type, kept for diagnostics.
	Type   string
	Array  Vector
	Scalar float64
	Kind   ValueKind
}

// Scalar builds a scalar HostValue.
func Scalar(f float64) HostValue {
	return HostValue{Kind: KindScalar, Scalar: f, Type: "number"}
}

// Array builds an array HostValue.
func Array(v Vector) HostValue {
	return HostValue{Kind: KindArray, Array: v, Type: "array"}
}

// Invalid builds a HostValue for an unsupported host type.
func Invalid(hostType string) HostValue {
	return HostValue{Kind: KindInvalid, Type: hostType}
}

// MarshalJSON encodes scalars as numbers and arrays as JSON arrays.
func (v HostValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindScalar:
		return json.Marshal(v.Scalar)
	case KindArray:
		if v.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal([]float64(v.Array))
	default:
		return nil, fmt.Errorf("cannot encode %s host value of type %q", v.Kind, v.Type)
	}
}

// UnmarshalJSON classifies a JSON value. Values other than a number or an
// array of numbers decode to KindInvalid without error so that the bridge can
// report a typed mismatch.
func (v *HostValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Invalid("empty")
		return nil
	}
	switch data[0] {
	case '[':
		// Pointers distinguish null elements, which would otherwise decode as 0.
		var arr []*float64
		if err := json.Unmarshal(data, &arr); err != nil {
			*v = Invalid("array")
			return nil
		}
		out := make([]float64, len(arr))
		for i, x := range arr {
			if x == nil {
				*v = Invalid("array")
				return nil
			}
			out[i] = *x
		}
		*v = Array(out)
	case '{':
		*v = Invalid("object")
	case '"':
		*v = Invalid("string")
	case 't', 'f':
		*v = Invalid("boolean")
	case 'n':
		*v = Invalid("null")
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("decode host value: %w", err)
		}
		*v = Scalar(f)
	}
	return nil
}
