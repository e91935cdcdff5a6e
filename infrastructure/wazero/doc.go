// Package wazero exposes a hostfuncs.HandlerRegistry to WebAssembly guests
// as a wazero host module (default name "numbridge_host").
//
// Every registry function becomes an import of type (i64) -> i64. The
// argument packs a pointer into guest memory in its high 32 bits and a
// length in its low 32 bits; the request JSON is read from there. The
// answer is written into memory obtained from the guest's "allocate"
// export and returned packed the same way. Oversized requests, unreadable
// memory and handler failures all answer with an ErrorResponse, so a guest
// always has JSON to decode.
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.NumericBundle(gonum.New())),
//	)
//	if err != nil {
//	    return err
//	}
//	err = wazero.RegisterWithRuntime(ctx, rt, registry,
//	    wazero.WithMaxRequestSize(64<<10),
//	    wazero.WithCustomHandler(wazero.LogMessageHandler(logger)),
//	)
//
// Functions outside the request/response shape are added with
// WithCustomHandler. LogMessageHandler, of type (i64) -> (), replays a
// guest's JSON log record through the host logger.
package wazero
