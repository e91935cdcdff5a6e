package bridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/domain/ports"
)

// LSFitTypeTag is the userdata type tag of nonlinear fitter handles.
const LSFitTypeTag = "numbridge.lsfitstate"

func (m *module) registerLSFitType(L *lua.LState) {
	mt := L.NewTypeMetatable(LSFitTypeTag)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"setcond": m.lsfitSetCond,
		"fit":     m.lsfitFit,
		"results": m.lsfitResults,
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		fit := m.checkLSFit(L, 1)
		n, dim, k := fit.Dimensions()
		mode := "f"
		if fit.UsesGradient() {
			mode = "fg"
		}
		L.Push(lua.LString(fmt.Sprintf("%s(%s, n=%d, m=%d, k=%d)", LSFitTypeTag, mode, n, dim, k)))
		return 1
	}))
}

// lsfitcreatef(x, y, c [, diffstep]) -> handle
func (m *module) lsfitCreateF(L *lua.LState) int {
	diffStep := float64(L.OptNumber(4, lua.LNumber(m.cfg.lsfit.DiffStep)))
	if diffStep <= 0 {
		L.ArgError(4, "differentiation step must be positive")
		return 0
	}
	return m.lsfitCreate(L, diffStep)
}

// lsfitcreatefg(x, y, c) -> handle
func (m *module) lsfitCreateFG(L *lua.LState) int {
	return m.lsfitCreate(L, 0)
}

func (m *module) lsfitCreate(L *lua.LState, diffStep float64) int {
	x := m.checkPoints(L, 1)
	y := m.checkVector(L, 2, "y")
	c := m.checkVector(L, 3, "c")

	fit, err := m.cfg.lib.NewLSFit(x, y, c, diffStep)
	if err != nil {
		raise(L, err)
		return 0
	}
	d := m.cfg.lsfit
	fit.SetCond(d.EpsF, d.EpsX, d.MaxIterations)

	L.Push(WrapHandle(L, fit, LSFitTypeTag))
	return 1
}

func (m *module) checkLSFit(L *lua.LState, n int) ports.NonlinearFitter {
	v, err := UnwrapHandle(L, L.Get(n), LSFitTypeTag)
	if err != nil {
		L.ArgError(n, err.Error())
		return nil
	}
	fit, ok := v.(ports.NonlinearFitter)
	if !ok {
		L.ArgError(n, "lsfit handle expected")
		return nil
	}
	return fit
}

// h:setcond(epsf, epsx, maxits)
func (m *module) lsfitSetCond(L *lua.LState) int {
	fit := m.checkLSFit(L, 1)
	epsF := float64(L.OptNumber(2, 0))
	epsX := float64(L.OptNumber(3, 0))
	maxIts := L.OptInt(4, 0)
	if epsF < 0 || epsX < 0 || maxIts < 0 {
		L.ArgError(2, "stopping conditions must be non-negative")
		return 0
	}
	fit.SetCond(epsF, epsX, maxIts)
	return 0
}

// h:fit(func [, grad]). Callbacks receive (h, c, x).
func (m *module) lsfitFit(L *lua.LState) int {
	fit := m.checkLSFit(L, 1)
	valueFn := L.CheckFunction(2)
	gradFn := L.OptFunction(3, nil)

	state := NewCallbackState(L, L.Get(1), WithCallbackLogger(m.cfg.logger))
	defer state.Close()

	state.SetValueFunc(valueFn)
	if fit.UsesGradient() && gradFn != nil {
		state.SetGradFunc(gradFn)
	}

	var grad ports.GradFunc
	if fit.UsesGradient() {
		// Bound unconditionally so a missing callback surfaces from the
		// bridge as soon as the solver asks for a gradient.
		grad = state.InvokeGradient
	}

	if err := fit.Fit(contextOf(L), state.ValueFunc(), grad); err != nil {
		raise(L, err)
		return 0
	}
	return 0
}

// h:results() -> info, c, report
func (m *module) lsfitResults(L *lua.LState) int {
	fit := m.checkLSFit(L, 1)
	info, c, rep := fit.Results()
	L.Push(lua.LNumber(info))
	L.Push(VectorToTable(L, c))
	L.Push(RecordToTable(L, rep))
	return 3
}
