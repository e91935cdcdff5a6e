package bridge

import (
	"context"
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/domain/errors"
	"github.com/reglet-dev/numbridge/domain/ports"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
	"github.com/reglet-dev/numbridge/log"
)

// ModuleName is the name scripts pass to require.
const ModuleName = "numbridge"

// Version is the module version reported to scripts.
const Version = "0.3.0"

// DefaultMaxVectorLength caps the length of any vector passed in from Lua.
const DefaultMaxVectorLength = entities.DefaultMaxVectorLength

// LSFitDefaults are the stopping conditions applied to new fitters before
// a script calls setcond. DiffStep is used by lsfitcreatef when the script
// omits the differentiation step.
type LSFitDefaults struct {
	EpsF          float64
	EpsX          float64
	MaxIterations int
	DiffStep      float64
}

type moduleConfig struct {
	lib             ports.Library
	logger          *slog.Logger
	lsfit           LSFitDefaults
	maxVectorLength int
}

// Option configures the Lua module.
type Option func(*moduleConfig)

// WithLibrary sets the numerical library (default: gonum).
func WithLibrary(lib ports.Library) Option {
	return func(c *moduleConfig) {
		c.lib = lib
	}
}

// WithLogger sets the logger for numbridge.log and diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *moduleConfig) {
		c.logger = logger
	}
}

// WithMaxVectorLength caps input vector lengths. Zero or negative values
// disable the check.
func WithMaxVectorLength(n int) Option {
	return func(c *moduleConfig) {
		c.maxVectorLength = n
	}
}

// WithLSFitDefaults sets the initial stopping conditions of new fitters.
func WithLSFitDefaults(d LSFitDefaults) Option {
	return func(c *moduleConfig) {
		c.lsfit = d
	}
}

func newModuleConfig(opts []Option) *moduleConfig {
	cfg := &moduleConfig{
		logger:          slog.Default(),
		maxVectorLength: DefaultMaxVectorLength,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.lib == nil {
		cfg.lib = gonum.New(gonum.WithLogger(cfg.logger))
	}
	return cfg
}

// Preload makes the module available to require in L.
func Preload(L *lua.LState, opts ...Option) {
	L.PreloadModule(ModuleName, Loader(opts...))
}

// Loader returns the module loader for L.PreloadModule.
func Loader(opts ...Option) lua.LGFunction {
	cfg := newModuleConfig(opts)
	m := &module{cfg: cfg}
	return func(L *lua.LState) int {
		m.registerLSFitType(L)

		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"polynomialfit":            m.polynomialFit,
			"gqgenerategausslegendre":  m.gaussLegendre,
			"gkqgenerategausslegendre": m.gaussKronrod,
			"lsfitcreatef":             m.lsfitCreateF,
			"lsfitcreatefg":            m.lsfitCreateFG,
			"log":                      m.log,
		})
		mod.RawSetString("version", lua.LString(Version))
		L.Push(mod)
		return 1
	}
}

type module struct {
	cfg *moduleConfig
}

// raise converts a bridge error into a Lua error.
func raise(L *lua.LState, err error) {
	L.RaiseError("%s", err.Error())
}

// checkVector reads argument n as a numeric sequence within the length cap.
func (m *module) checkVector(L *lua.LState, n int, name string) entities.Vector {
	v, err := TableToVector(L, L.Get(n))
	if err != nil {
		L.ArgError(n, err.Error())
		return nil
	}
	if err := m.checkLength(name, len(v)); err != nil {
		L.ArgError(n, err.Error())
		return nil
	}
	return v
}

// checkPoints reads argument n as a point matrix. A flat numeric sequence
// is accepted as n one-dimensional points.
func (m *module) checkPoints(L *lua.LState, n int) entities.Matrix {
	lv := L.Get(n)
	if tb, ok := lv.(*lua.LTable); ok {
		if _, flat := tb.RawGetInt(1).(lua.LNumber); flat {
			v := m.checkVector(L, n, "x")
			return entities.Matrix{Data: v, Rows: len(v), Cols: 1}
		}
	}

	x, err := TableToMatrix(L, lv)
	if err != nil {
		L.ArgError(n, err.Error())
		return entities.Matrix{}
	}
	if err := m.checkLength("x", len(x.Data)); err != nil {
		L.ArgError(n, err.Error())
		return entities.Matrix{}
	}
	return x
}

func (m *module) checkLength(name string, size int) error {
	if m.cfg.maxVectorLength > 0 && size > m.cfg.maxVectorLength {
		return &errors.LimitError{What: name, Size: size, Limit: m.cfg.maxVectorLength}
	}
	return nil
}

// polynomialfit(x, y, m) -> info, coeffs, report
func (m *module) polynomialFit(L *lua.LState) int {
	x := m.checkVector(L, 1, "x")
	y := m.checkVector(L, 2, "y")
	basis := L.CheckInt(3)

	info, c, rep := m.cfg.lib.PolynomialFit(x, y, basis)
	L.Push(lua.LNumber(info))
	L.Push(VectorToTable(L, c))
	L.Push(RecordToTable(L, rep))
	return 3
}

// gqgenerategausslegendre(n) -> {info, x, w}
func (m *module) gaussLegendre(L *lua.LState) int {
	n := L.CheckInt(1)
	if err := m.checkLength("n", n); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	rule := m.cfg.lib.GaussLegendre(n)
	L.Push(CompositeResult(L, rule.Info, rule.Nodes, rule.Weights))
	return 1
}

// gkqgenerategausslegendre(n) -> {info, x, wkronrod, wgauss}
func (m *module) gaussKronrod(L *lua.LState) int {
	n := L.CheckInt(1)
	if err := m.checkLength("n", n); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	rule := m.cfg.lib.GaussKronrod(n)
	L.Push(CompositeResult(L, rule.Info, rule.Nodes, rule.Weights, rule.GaussWeights))
	return 1
}

// log(level, msg [, attrs])
func (m *module) log(L *lua.LState) int {
	levelName := L.CheckString(1)
	msg := L.CheckString(2)
	attrs := L.OptTable(3, nil)

	level, err := log.ParseLevel(levelName)
	if err != nil {
		L.ArgError(1, fmt.Sprintf("unknown log level %q", levelName))
		return 0
	}

	var fields []slog.Attr
	if attrs != nil {
		attrs.ForEach(func(k, v lua.LValue) {
			fields = append(fields, luaAttr(k.String(), v))
		})
	}

	log.Replay(contextOf(L), m.cfg.logger, log.NewMessage("lua", level, msg, fields...))
	return 0
}

func luaAttr(key string, v lua.LValue) slog.Attr {
	switch v := v.(type) {
	case lua.LNumber:
		return slog.Float64(key, float64(v))
	case lua.LBool:
		return slog.Bool(key, bool(v))
	default:
		return slog.String(key, v.String())
	}
}

// contextOf returns the context attached to L, or Background.
func contextOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
