package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/numbridge"
	"github.com/reglet-dev/numbridge/infrastructure/gonum"
)

func newRunCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "run [flags] <script.lua>...",
		Short: "Run Lua scripts with the numbridge module preloaded",
		Long: `Run each script in its own Lua state. Scripts run concurrently up to
--jobs at a time; the first failure cancels the scripts still running.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.logger(cmd)
			if err != nil {
				return err
			}
			lib := gonum.New(gonum.WithLogger(logger))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for _, path := range args {
				g.Go(func() error {
					rt, err := numbridge.NewRuntime(
						numbridge.WithOptions(a.opts),
						numbridge.WithLogger(logger.With("script", path)),
						numbridge.WithLibrary(lib),
					)
					if err != nil {
						return err
					}
					defer rt.Close()
					return rt.DoFile(ctx, path)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "maximum scripts run concurrently")
	return cmd
}
