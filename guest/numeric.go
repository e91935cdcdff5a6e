//go:build wasip1

package guest

import (
	"log/slog"

	"github.com/reglet-dev/numbridge/domain/entities"
	"github.com/reglet-dev/numbridge/hostfuncs"
)

func call[Req any, Resp any](name string, fn func(uint64) uint64, req Req) (Resp, error) {
	var zero Resp
	data, err := encodeRequest(name, req)
	if err != nil {
		return zero, err
	}
	packed := toHost(data)
	defer release(packed)
	return decodeResponse[Resp](name, fromHost(fn(packed)))
}

// PolynomialFit asks the host for a least-squares polynomial fit.
func PolynomialFit(x, y []float64, m int) (hostfuncs.PolynomialFitResponse, error) {
	return call[hostfuncs.PolynomialFitRequest, hostfuncs.PolynomialFitResponse](
		"polynomial_fit", hostPolynomialFit, hostfuncs.PolynomialFitRequest{X: x, Y: y, M: m})
}

// GaussLegendre asks the host for an n-point Gauss-Legendre rule.
func GaussLegendre(n int) (entities.QuadratureRule, error) {
	return call[hostfuncs.QuadratureRequest, entities.QuadratureRule](
		"gauss_legendre", hostGaussLegendre, hostfuncs.QuadratureRequest{N: n})
}

// GaussKronrod asks the host for an n-point Gauss-Kronrod rule.
func GaussKronrod(n int) (entities.QuadratureRule, error) {
	return call[hostfuncs.QuadratureRequest, entities.QuadratureRule](
		"gauss_kronrod", hostGaussKronrod, hostfuncs.QuadratureRequest{N: n})
}

// Log forwards a record to the host logger, attributed to this guest.
func Log(level slog.Level, msg string, attrs ...slog.Attr) {
	data := logMessageJSON(level, msg, attrs)
	if data == nil {
		return
	}
	packed := toHost(data)
	defer release(packed)
	hostLogMessage(packed)
}
