package config

import (
	"fmt"
	"math"

	"github.com/reglet-dev/numbridge/domain/errors"
)

// Values is a loosely typed option map keyed by dotted option names, as
// decoded from YAML scalars or --set flags.
type Values = map[string]any

// GetString returns values[key] if it is a string.
func GetString(values Values, key string) (string, bool) {
	s, ok := values[key].(string)
	return s, ok
}

// GetInt returns values[key] as an int. YAML and JSON decoders produce int,
// int64, uint64 or float64 for the same literal; floats must be integral.
func GetInt(values Values, key string) (int, bool) {
	switch n := values[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// GetFloat returns values[key] as a float64, accepting integer literals.
func GetFloat(values Values, key string) (float64, bool) {
	switch n := values[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func missing(key, want string) error {
	return &errors.ConfigError{Field: key, Err: fmt.Errorf("value is missing or not %s", want)}
}

// MustGetString is GetString returning a ConfigError when absent.
func MustGetString(values Values, key string) (string, error) {
	if s, ok := GetString(values, key); ok {
		return s, nil
	}
	return "", missing(key, "a string")
}

// MustGetInt is GetInt returning a ConfigError when absent.
func MustGetInt(values Values, key string) (int, error) {
	if n, ok := GetInt(values, key); ok {
		return n, nil
	}
	return 0, missing(key, "an integer")
}

// MustGetFloat is GetFloat returning a ConfigError when absent.
func MustGetFloat(values Values, key string) (float64, error) {
	if f, ok := GetFloat(values, key); ok {
		return f, nil
	}
	return 0, missing(key, "a number")
}
