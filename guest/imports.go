//go:build wasip1

package guest

// Imports from the default host module name. Hosts configured with another
// wasm.module_name cannot serve guests built with this package.

//go:wasmimport numbridge_host polynomial_fit
func hostPolynomialFit(packed uint64) uint64

//go:wasmimport numbridge_host gauss_legendre
func hostGaussLegendre(packed uint64) uint64

//go:wasmimport numbridge_host gauss_kronrod
func hostGaussKronrod(packed uint64) uint64

//go:wasmimport numbridge_host log_message
func hostLogMessage(packed uint64)
