package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const retailLayer = "testdata/retail.yaml"

const topProductsSQL = `SELECT t2.name, SUM(t1.amount) AS "total_sales"
FROM order_items t1
INNER JOIN products t2 ON t1.product_id = t2.id
GROUP BY t2.name
ORDER BY "total_sales" DESC
LIMIT 5;`

func queryFile(name string) string {
	return filepath.Join("testdata", "queries", name+".json")
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return run(cmd, "", args)
}

// executeStdin runs cmd reading its query from stdin.
func executeStdin(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	return run(cmd, stdin, append(args, "-"))
}

func run(cmd *cobra.Command, stdin string, args []string) (string, error) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
