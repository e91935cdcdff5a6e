// Package guest is the guest side of the numbridge WebAssembly ABI. A Go
// program built with GOOS=wasip1 imports it to call the host's numeric
// functions and to serve value and gradient callbacks to host fits.
//
// Every call crosses the boundary as a JSON document addressed by a packed
// i64 whose high 32 bits are a pointer into guest memory and whose low 32
// bits are its length. The package exports "allocate" so the host can
// place requests and responses in guest memory.
//
// A guest serving a linear model to a host fit:
//
//	//go:wasmexport model
//	func model(packed uint64) uint64 {
//	    return guest.Serve(packed, func(req []byte) []byte {
//	        return guest.HandleValue(req, func(c, x []float64) float64 {
//	            return c[0] + c[1]*x[0]
//	        })
//	    })
//	}
package guest
