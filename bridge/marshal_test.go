package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/domain/entities"
	domainerrors "github.com/reglet-dev/numbridge/domain/errors"
)

// eval runs a Lua expression and returns its value.
func eval(t *testing.T, L *lua.LState, expr string) lua.LValue {
	t.Helper()
	require.NoError(t, L.DoString("return "+expr))
	v := L.Get(-1)
	L.Pop(1)
	return v
}

func TestVectorToTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	v := entities.Vector{1.5, -2, 3}
	tb := VectorToTable(L, v)
	require.Equal(t, 3, tb.Len())
	assert.Equal(t, lua.LNumber(1.5), tb.RawGetInt(1))
	assert.Equal(t, lua.LNumber(3), tb.RawGetInt(3))

	v[0] = 99
	assert.Equal(t, lua.LNumber(1.5), tb.RawGetInt(1), "values are copied")

	assert.Equal(t, 0, VectorToTable(L, nil).Len())
}

func TestIntVectorToTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tb := IntVectorToTable(L, entities.IntVector{4, -1})
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, lua.LNumber(-1), tb.RawGetInt(2))
}

func TestTableToVector(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name    string
		expr    string
		want    entities.Vector
		wantErr string
	}{
		{name: "numbers", expr: "{1, 2.5, -3}", want: entities.Vector{1, 2.5, -3}},
		{name: "empty", expr: "{}", want: entities.Vector{}},
		{name: "not a table", expr: "42", wantErr: "expected table, got number"},
		{name: "nil", expr: "nil", wantErr: "expected table, got nil"},
		{name: "string element", expr: `{1, "2"}`, wantErr: "sequence element 2: expected number, got string"},
		{name: "hash key", expr: "{1, 2, foo = 3}", wantErr: "non-sequence key foo"},
		{name: "nested", expr: "{{1}}", wantErr: "expected number, got table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TableToVector(L, eval(t, L, tt.expr))
			if tt.wantErr != "" {
				var tm *domainerrors.TypeMismatchError
				require.True(t, errors.As(err, &tm), "got %v", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableToVector_RoundTrip(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	v := entities.Vector{0.1, 1e300, -7}
	got, err := TableToVector(L, VectorToTable(L, v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestTableToIntVector(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	got, err := TableToIntVector(L, eval(t, L, "{1, 2, -3}"))
	require.NoError(t, err)
	assert.Equal(t, entities.IntVector{1, 2, -3}, got)

	_, err = TableToIntVector(L, eval(t, L, "{1, 2.5}"))
	var tm *domainerrors.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, "integer", tm.Expected)

	for _, src := range []string{"{2^63}", "{-2^63}", "{1e300}", "{1, -1e19}"} {
		_, err = TableToIntVector(L, eval(t, L, src))
		require.True(t, errors.As(err, &tm), src)
		assert.Equal(t, "integer", tm.Expected, src)
	}

	got, err = TableToIntVector(L, eval(t, L, "{2^62, -2^62}"))
	require.NoError(t, err)
	assert.Equal(t, entities.IntVector{1 << 62, -(1 << 62)}, got)
}

func TestTableToMatrix(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	m, err := TableToMatrix(L, eval(t, L, "{{1, 2}, {3, 4}, {5, 6}}"))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, []float64{3, 4}, m.Row(1))

	_, err = TableToMatrix(L, eval(t, L, "{{1, 2}, {3}}"))
	assert.ErrorContains(t, err, "rows of equal length")

	_, err = TableToMatrix(L, eval(t, L, `{{1, 2}, {3, "x"}}`))
	assert.ErrorContains(t, err, "matrix row 2")
}

func TestRecordToTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	rep := entities.LSFitReport{RMSError: 0.5, R2: 0.9, IterationsCount: 12}
	tb := RecordToTable(L, rep)

	var keys []string
	tb.ForEach(func(k, _ lua.LValue) { keys = append(keys, k.String()) })
	assert.ElementsMatch(t, entities.RecordKeys(rep), keys)
	assert.Equal(t, lua.LNumber(0.5), tb.RawGetString("rmserror"))
	assert.Equal(t, lua.LNumber(12), tb.RawGetString("iterationscount"))
}

func TestCompositeResult(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	three := CompositeResult(L, 1, entities.Vector{1}, entities.Vector{2, 3})
	assert.Equal(t, 3, three.Len())
	assert.Equal(t, lua.LNumber(1), three.RawGetInt(1))
	assert.Equal(t, 2, three.RawGetInt(3).(*lua.LTable).Len())

	four := CompositeResult(L, -3, entities.Vector{}, entities.Vector{}, entities.Vector{})
	assert.Equal(t, 4, four.Len(), "an empty third vector still yields four elements")
	assert.Equal(t, lua.LNumber(-3), four.RawGetInt(1))
	assert.Equal(t, 0, four.RawGetInt(4).(*lua.LTable).Len())

	assert.Panics(t, func() {
		CompositeResult(L, 1, nil, nil, entities.Vector{}, entities.Vector{})
	})
}

func TestWrapHandle(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	type state struct{ n int }
	obj := &state{n: 7}

	ud := WrapHandle(L, obj, "test.state")
	assert.Equal(t, L.GetTypeMetatable("test.state"), ud.Metatable)

	got, err := UnwrapHandle(L, ud, "test.state")
	require.NoError(t, err)
	assert.Same(t, obj, got)

	_, err = UnwrapHandle(L, ud, "test.other")
	var tm *domainerrors.TypeMismatchError
	require.True(t, errors.As(err, &tm))

	_, err = UnwrapHandle(L, L.NewUserData(), "test.state")
	assert.ErrorContains(t, err, "foreign userdata")

	_, err = UnwrapHandle(L, lua.LString("x"), "test.state")
	assert.ErrorContains(t, err, "got string")
}
