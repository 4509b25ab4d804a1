package main

import (
	"bytes"
	"fmt"

	"librarygql/internal/graph"

	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema the server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sdl, err := formatSchema()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), sdl)
			return nil
		},
	}
}

func formatSchema() (string, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: graph.SDL})
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchema(schema)
	return buf.String(), nil
}
