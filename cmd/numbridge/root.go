package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/numbridge/application/config"
)

// version is overridden at link time.
var version = "dev"

type app struct {
	configPath string
	sets       []string
	opts       *config.Options
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "numbridge",
		Short:        "Numerical fitting and quadrature host for Lua scripts and WASM guests",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadOptions()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML options file")
	cmd.PersistentFlags().StringArrayVar(&a.sets, "set", nil,
		fmt.Sprintf("override an option as key=value (keys: %s)", strings.Join(config.Keys(), ", ")))

	cmd.AddCommand(
		newRunCmd(a),
		newSchemaCmd(),
		newWASMCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) loadOptions() error {
	opts := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		opts = loaded
	}

	values, err := parseSets(a.sets)
	if err != nil {
		return err
	}
	if err := opts.Apply(values); err != nil {
		return err
	}
	a.opts = opts
	return nil
}

// parseSets reads key=value pairs, decoding each value as a YAML scalar so
// numbers keep their type.
func parseSets(sets []string) (config.Values, error) {
	values := make(config.Values, len(sets))
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		if v == nil {
			v = raw
		}
		values[key] = v
	}
	return values, nil
}

func (a *app) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return a.opts.Logger(cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "numbridge %s\n", version)
		},
	}
}
