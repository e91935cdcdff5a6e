package bridge

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/application/callback"
	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/domain/ports"
)

// Argument slots passed to every callback: the pinned host object, the
// parameter vector and the point.
const (
	slotObject = iota
	slotParams
	slotPoint
	numSlots
)

// CallbackState lets the numerical library call Lua model functions while a
// solver runs. Slot 0 of the argument buffer always holds the pinned host
// object; slots 1 and 2 are rewritten on every invocation.
//
// A CallbackState is bound to a single Lua state and must not be shared
// between goroutines. Callers release it with Close when the solver returns.
type CallbackState struct {
	L       *lua.LState
	logger  *slog.Logger
	obj     *Pin
	valueFn *lua.LFunction
	gradFn  *lua.LFunction
	args    []lua.LValue
	rvs     []lua.LValue
}

// CallbackOption configures a CallbackState.
type CallbackOption func(*CallbackState)

// WithCallbackLogger sets the logger used for callback diagnostics.
func WithCallbackLogger(logger *slog.Logger) CallbackOption {
	return func(s *CallbackState) {
		s.logger = logger
	}
}

// NewCallbackState pins obj and places it in argument slot 0.
func NewCallbackState(L *lua.LState, obj lua.LValue, opts ...CallbackOption) *CallbackState {
	s := &CallbackState{
		L:      L,
		logger: slog.Default(),
		obj:    Acquire(L, obj),
		args:   make([]lua.LValue, numSlots),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.args[slotObject] = s.obj.Value()
	s.args[slotParams] = lua.LNil
	s.args[slotPoint] = lua.LNil
	return s
}

// Object returns the pinned host object.
func (s *CallbackState) Object() lua.LValue {
	return s.args[slotObject]
}

// SetValueFunc registers the value callback.
func (s *CallbackState) SetValueFunc(fn *lua.LFunction) {
	s.valueFn = fn
}

// SetGradFunc registers the gradient callback.
func (s *CallbackState) SetGradFunc(fn *lua.LFunction) {
	s.gradFn = fn
}

// Close releases the object pin and clears the buffers.
func (s *CallbackState) Close() {
	s.obj.Release()
	s.valueFn = nil
	s.gradFn = nil
	for i := range s.args {
		s.args[i] = lua.LNil
	}
	s.rvs = s.rvs[:0]
}

// InvokeValue calls the value callback with (object, c, x). It must return
// exactly one number.
func (s *CallbackState) InvokeValue(c, x []float64) (float64, error) {
	if s.valueFn == nil {
		return 0, &errors.MissingCallbackError{Kind: callback.ValueFunction}
	}
	values, err := s.invoke(callback.ValueFunction, s.valueFn, callback.ValueArity, c, x)
	if err != nil {
		return 0, err
	}
	return callback.ScalarResult(callback.ValueFunction, values)
}

// InvokeGradient calls the gradient callback with (object, c, x). It must
// return the model value and an array of len(grad) partial derivatives,
// which is copied into grad.
func (s *CallbackState) InvokeGradient(c, x, grad []float64) (float64, error) {
	if s.gradFn == nil {
		return 0, &errors.MissingCallbackError{Kind: callback.GradientFunction}
	}
	values, err := s.invoke(callback.GradientFunction, s.gradFn, callback.GradientArity, c, x)
	if err != nil {
		return 0, err
	}
	return callback.GradientResult(callback.GradientFunction, values, grad)
}

// ValueFunc adapts InvokeValue to the library's callback type.
func (s *CallbackState) ValueFunc() ports.ValueFunc {
	return s.InvokeValue
}

// GradFunc adapts InvokeGradient to the library's callback type. It returns
// nil when no gradient callback is registered.
func (s *CallbackState) GradFunc() ports.GradFunc {
	if s.gradFn == nil {
		return nil
	}
	return s.InvokeGradient
}

// invoke calls fn and returns its classified results. The arity is checked
// before any result is read; the return buffer is emptied afterwards.
func (s *CallbackState) invoke(name string, fn *lua.LFunction, arity int, c, x []float64) ([]entities.HostValue, error) {
	L := s.L
	s.args[slotParams] = VectorToTable(L, c)
	s.args[slotPoint] = VectorToTable(L, x)

	base := L.GetTop()
	L.Push(fn)
	for _, a := range s.args {
		L.Push(a)
	}
	if err := L.PCall(len(s.args), lua.MultRet, nil); err != nil {
		s.logger.Debug("callback raised an error", "callback", name, "error", err)
		return nil, &errors.CallbackError{Function: name, Err: err}
	}

	count := L.GetTop() - base
	for i := 1; i <= count; i++ {
		s.rvs = append(s.rvs, L.Get(base+i))
	}
	L.Pop(count)
	defer func() { s.rvs = s.rvs[:0] }()

	if err := callback.CheckArity(name, arity, len(s.rvs)); err != nil {
		return nil, err
	}

	values := make([]entities.HostValue, len(s.rvs))
	for i, rv := range s.rvs {
		values[i] = Classify(rv)
	}
	return values, nil
}
