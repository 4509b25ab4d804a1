package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

func newQueryCmd(opts *options) *cobra.Command {
	var (
		raw       bool
		variables string
		operation string
	)
	cmd := &cobra.Command{
		Use:     "query [document]",
		Aliases: []string{"exec"},
		Short:   "Execute a GraphQL query or mutation",
		Long: `Execute a GraphQL query or mutation. The document is read from stdin
when no argument is given.

Examples:
  libq query '{ allBooks(genre: "refactoring") { title author { name } } }'
  libq query -v '{"name":"Sandi Metz"}' 'mutation($name: String!) { editAuthor(name: $name, setBornTo: 1967) { born } }'
  cat books.graphql | libq query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			var vars map[string]any
			if variables != "" {
				if err := json.Unmarshal([]byte(variables), &vars); err != nil {
					return fmt.Errorf("invalid variables JSON: %w", err)
				}
			}

			data, err := newClient(opts.url, opts.token).do(cmd.Context(), doc, vars, operation)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), data, raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "json", false, "Output raw JSON (no formatting)")
	cmd.Flags().StringVarP(&variables, "variables", "v", "", "Variables as a JSON object")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "Operation name for multi-operation documents")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Print a bearer token for the user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(opts.url, "").do(cmd.Context(),
				`mutation($u: String!, $p: String!) { login(username: $u, password: $p) { value } }`,
				map[string]any{"u": args[0], "p": args[1]}, "")
			if err != nil {
				return err
			}
			var out struct {
				Login struct {
					Value string `json:"value"`
				} `json:"login"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				return fmt.Errorf("decode login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Login.Value)
			return nil
		},
	}
}

// document returns the single argument or, failing that, piped stdin.
func document(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if f, ok := stdin.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("checking stdin: %w", err)
		}
		if stat.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no document provided (pass as argument or pipe to stdin)")
		}
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	doc := strings.TrimSpace(string(b))
	if doc == "" {
		return "", fmt.Errorf("no document provided (pass as argument or pipe to stdin)")
	}
	return doc, nil
}

func printJSON(w io.Writer, data []byte, raw bool) {
	if raw {
		fmt.Fprintln(w, string(data))
		return
	}
	out := pretty.Pretty(data)
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		out = pretty.Color(out, nil)
	}
	fmt.Fprint(w, string(out))
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}
