// Command numbridge runs Lua scripts and WebAssembly guests against the
// numbridge numerical host.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
