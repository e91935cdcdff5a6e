// Package host runs WebAssembly guests against the numbridge host functions.
//
// An Executor owns a wazero runtime with WASI and the numbridge host module.
// Guests loaded into it can call the numeric host functions, and the host
// can call guest exports with JSON payloads over the packed i64 ptr/len ABI.
// Guest exports can also stand in for the value and gradient callbacks of a
// nonlinear least-squares fit.
package host
