// Command semsql compiles structured analytics queries into SQL.
//
// The CLI supports:
//   - compile: Render a query IR document as a SQL SELECT statement
//   - explain: Show the tables, aliases and joins a query compiles with
//   - validate: Check a query IR document for structural problems
//   - entities: List the metrics and attributes of a semantic layer
//   - history: Show recorded compilations
//   - replay: Recompile recorded queries and report SQL drift
//   - test: Run YAML compilation scenarios against golden files
//
// Usage:
//
//	semsql [flags] <command>
//
// Global configuration comes from flags, SEMSQL_* environment variables and
// an optional semsql.yaml file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/semsql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
