package bridge

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
)

// VectorToTable copies v into a new 1-based Lua sequence.
func VectorToTable(L *lua.LState, v entities.Vector) *lua.LTable {
	tb := L.CreateTable(len(v), 0)
	for i, f := range v {
		tb.RawSetInt(i+1, lua.LNumber(f))
	}
	return tb
}

// IntVectorToTable copies v into a new 1-based Lua sequence.
func IntVectorToTable(L *lua.LState, v entities.IntVector) *lua.LTable {
	tb := L.CreateTable(len(v), 0)
	for i, n := range v {
		tb.RawSetInt(i+1, lua.LNumber(n))
	}
	return tb
}

// TableToVector copies a Lua sequence of numbers into a Vector. The table
// must be a proper sequence: every key is an integer in 1..#t and every
// element is a number.
func TableToVector(L *lua.LState, lv lua.LValue) (entities.Vector, error) {
	tb, err := sequence(lv, "sequence")
	if err != nil {
		return nil, err
	}

	n := tb.Len()
	v := make(entities.Vector, n)
	for i := 1; i <= n; i++ {
		num, ok := tb.RawGetInt(i).(lua.LNumber)
		if !ok {
			return nil, &errors.TypeMismatchError{
				Context:  fmt.Sprintf("sequence element %d", i),
				Expected: "number",
				Got:      tb.RawGetInt(i).Type().String(),
			}
		}
		v[i-1] = float64(num)
	}
	return v, nil
}

// TableToIntVector is TableToVector for integer data. Elements must be
// integral.
func TableToIntVector(L *lua.LState, lv lua.LValue) (entities.IntVector, error) {
	f, err := TableToVector(L, lv)
	if err != nil {
		return nil, err
	}
	v := make(entities.IntVector, len(f))
	for i, x := range f {
		// Magnitudes of 2^63 and above do not convert to int64.
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.Abs(x) >= 0x1p63 {
			return nil, &errors.TypeMismatchError{
				Context:  fmt.Sprintf("sequence element %d", i+1),
				Expected: "integer",
				Got:      fmt.Sprintf("number %v", x),
			}
		}
		v[i] = int64(x)
	}
	return v, nil
}

// TableToMatrix copies a Lua sequence of equal-length numeric rows.
func TableToMatrix(L *lua.LState, lv lua.LValue) (entities.Matrix, error) {
	tb, err := sequence(lv, "matrix")
	if err != nil {
		return entities.Matrix{}, err
	}

	rows := make([][]float64, tb.Len())
	for i := range rows {
		row, err := TableToVector(L, tb.RawGetInt(i+1))
		if err != nil {
			return entities.Matrix{}, fmt.Errorf("matrix row %d: %w", i+1, err)
		}
		rows[i] = row
	}

	m, err := entities.NewMatrix(rows)
	if err != nil {
		return entities.Matrix{}, &errors.TypeMismatchError{Context: "matrix", Expected: "rows of equal length", Got: err.Error()}
	}
	return m, nil
}

// RecordToTable builds a Lua table keyed by the record's field names.
func RecordToTable(L *lua.LState, rec entities.Record) *lua.LTable {
	fields := rec.RecordFields()
	tb := L.CreateTable(0, len(fields))
	for _, f := range fields {
		tb.RawSetString(f.Name, lua.LNumber(f.Value))
	}
	return tb
}

// CompositeResult builds {status, A, B} or, when a third vector is given,
// {status, A, B, C}. Passing more than one extra vector panics.
func CompositeResult(L *lua.LState, status int, a, b entities.Vector, extra ...entities.Vector) *lua.LTable {
	if len(extra) > 1 {
		panic(fmt.Sprintf("bridge: composite result takes at most 3 vectors, got %d", 2+len(extra)))
	}
	tb := L.CreateTable(3+len(extra), 0)
	tb.RawSetInt(1, lua.LNumber(status))
	tb.RawSetInt(2, VectorToTable(L, a))
	tb.RawSetInt(3, VectorToTable(L, b))
	if len(extra) == 1 {
		tb.RawSetInt(4, VectorToTable(L, extra[0]))
	}
	return tb
}

// WrapHandle wraps a library object as userdata tagged with typeTag. The
// tag's metatable is created on first use.
func WrapHandle(L *lua.LState, ptr any, typeTag string) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = ptr
	L.SetMetatable(ud, L.NewTypeMetatable(typeTag))
	return ud
}

// UnwrapHandle returns the object wrapped by WrapHandle under typeTag.
func UnwrapHandle(L *lua.LState, lv lua.LValue, typeTag string) (any, error) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, &errors.TypeMismatchError{Context: "handle", Expected: typeTag, Got: lv.Type().String()}
	}
	if mt := L.GetTypeMetatable(typeTag); mt == lua.LNil || ud.Metatable != mt {
		return nil, &errors.TypeMismatchError{Context: "handle", Expected: typeTag, Got: "foreign userdata"}
	}
	return ud.Value, nil
}

// sequence checks that lv is a table whose keys are exactly 1..#t.
func sequence(lv lua.LValue, what string) (*lua.LTable, error) {
	tb, ok := lv.(*lua.LTable)
	if !ok {
		return nil, &errors.TypeMismatchError{Context: what, Expected: "table", Got: lv.Type().String()}
	}

	n := tb.Len()
	keys := 0
	var stray lua.LValue
	tb.ForEach(func(k, _ lua.LValue) {
		keys++
		if idx, ok := k.(lua.LNumber); !ok || float64(idx) != math.Trunc(float64(idx)) || int(idx) < 1 || int(idx) > n {
			if stray == nil {
				stray = k
			}
		}
	})
	if stray != nil || keys != n {
		got := fmt.Sprintf("table with %d keys for length %d", keys, n)
		if stray != nil {
			got = fmt.Sprintf("table with non-sequence key %s", stray.String())
		}
		return nil, &errors.TypeMismatchError{Context: what, Expected: "sequence", Got: got}
	}
	return tb, nil
}
