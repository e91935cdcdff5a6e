// Package hostfuncs provides pure Go implementations of the numbridge host
// functions exposed to WebAssembly guests. Handlers speak JSON and have no
// WASM runtime dependencies; infrastructure/wazero binds them to a runtime.
package hostfuncs
