package main

import (
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	url   string
	token string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "libq",
		Short: "Run GraphQL documents against a library server",
		Long: `libq sends queries and mutations to a running library API and prints
the result. The bearer token can also be given with LIBQ_TOKEN.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", envOr("LIBQ_URL", "http://localhost:4000/graphql"), "GraphQL endpoint")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("LIBQ_TOKEN"), "Bearer token sent with every request")

	root.AddCommand(newQueryCmd(opts), newLoginCmd(opts), newSchemaCmd())
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
