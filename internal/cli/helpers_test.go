package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgate/internal/catalog"
)

// seedExampleDB creates the customers/orders database in a temp dir.
func seedExampleDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.sqlite")

	db, err := catalog.Open(context.Background(), catalog.DialectSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, catalog.Seed(context.Background(), db))

	return path
}

// writeFile writes content to name inside a temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const sumForCustomerJSON = `{
  "intent": "aggregation",
  "tables": ["orders"],
  "metrics": [{"column": "orders.amount", "operation": "sum"}],
  "filters": [{"column": "orders.customer_id", "operator": "=", "value": "5"}]
}`

const sumForCustomerSQL = "SELECT SUM(orders.amount) FROM orders WHERE orders.customer_id = '5'"

const hallucinatedJSON = `{
  "intent": "aggregation",
  "tables": ["orders"],
  "metrics": [{"column": "orders.revenue", "operation": "SUM"}]
}`
