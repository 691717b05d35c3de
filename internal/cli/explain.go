package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/querysql"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query.json|->",
		Short: "Show the tables, aliases and joins a query compiles with",
		Long: `Plan a query without rendering SQL.

Prints the required tables, the root table of the FROM clause, the alias
assigned to every table and the foreign keys used to join them.

Examples:
  semsql explain --layer retail.yaml query.json
  semsql explain --layer retail.yaml --format json query.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	layer, err := loadLayer(formatter, opts.Layer)
	if err != nil {
		return err
	}
	q, err := readQuery(formatter, cmd, input)
	if err != nil {
		return err
	}

	ws, err := querysql.NewCompiler(layer).Plan(q)
	if err != nil {
		return compileFailure(formatter, err)
	}

	if formatter.JSON() {
		return formatter.Success(ws)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Root: %s\n", ws.Root)
	fmt.Fprintf(w, "Required tables: %s\n", strings.Join(ws.RequiredTables, ", "))
	fmt.Fprintln(w, "Aliases:")
	for _, table := range ws.Tables() {
		fmt.Fprintf(w, "  %s %s\n", ws.Aliases[table], table)
	}
	if len(ws.JoinPath) == 0 {
		fmt.Fprintln(w, "Join path: (none)")
		return nil
	}
	fmt.Fprintln(w, "Join path:")
	for _, fk := range ws.JoinPath {
		fmt.Fprintf(w, "  %s\n", fk)
	}
	return nil
}
