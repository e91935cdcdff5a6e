package bridge

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/domain/entities"
)

// Classify turns a Lua callback return value into a HostValue. Numbers are
// scalars, numeric sequences are arrays and everything else is invalid.
func Classify(lv lua.LValue) entities.HostValue {
	switch v := lv.(type) {
	case lua.LNumber:
		return entities.Scalar(float64(v))
	case *lua.LTable:
		arr, err := TableToVector(nil, v)
		if err != nil {
			return entities.Invalid("table")
		}
		return entities.Array(arr)
	default:
		return entities.Invalid(lv.Type().String())
	}
}
