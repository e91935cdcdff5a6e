package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/numbridge/application/config"
	"github.com/reglet-dev/numbridge/application/schema"
	"github.com/reglet-dev/numbridge/hostfuncs"
)

var schemas = map[string]func() ([]byte, error){
	"config": config.Schema,
	"polynomial_fit": func() ([]byte, error) {
		return schema.GenerateSchema(hostfuncs.PolynomialFitRequest{})
	},
	"gauss_legendre": func() ([]byte, error) {
		return schema.GenerateSchema(hostfuncs.QuadratureRequest{})
	},
	"gauss_kronrod": func() ([]byte, error) {
		return schema.GenerateSchema(hostfuncs.QuadratureRequest{})
	},
}

func schemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema <" + strings.Join(schemaNames(), "|") + ">",
		Short:     "Print the JSON Schema of the options file or a host function request",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: schemaNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schemas[args[0]]()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
