package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	"github.com/reglet-dev/numbridge/host"
	"github.com/reglet-dev/numbridge/hostfuncs"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
	hostwazero "github.com/reglet-dev/numbridge/infrastructure/wazero"
)

func newWASMCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wasm <module.wasm> [args...]",
		Short: "Run a WASI guest with the numeric host functions available",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			wasmBytes, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read guest: %w", err)
			}

			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}
			registry, err := hostfuncs.NewRegistry(
				hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(logger)),
				hostfuncs.WithBundle(hostfuncs.NumericBundle(
					gonum.New(gonum.WithLogger(logger)),
					hostfuncs.WithMaxVectorLength(a.opts.MaxVectorLength),
				)),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			exec, err := host.NewExecutor(ctx,
				host.WithLogger(logger),
				host.WithHostFunctions(registry),
				host.WithAdapterOptions(
					hostwazero.WithModuleName(a.opts.WASM.ModuleName),
					hostwazero.WithMaxRequestSize(a.opts.WASM.MaxRequestSize),
				),
			)
			if err != nil {
				return err
			}
			defer func() { _ = exec.Close(ctx) }()

			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			cfg := wazero.NewModuleConfig().
				WithArgs(append([]string{name}, args[1:]...)...).
				WithStdout(cmd.OutOrStdout()).
				WithStderr(cmd.ErrOrStderr())
			return exec.RunModule(ctx, name, wasmBytes, cfg)
		},
	}
}
