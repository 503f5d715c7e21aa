package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgate/internal/store"
)

func TestCompile_PrintsSQL(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.json", sumForCustomerJSON)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), irPath, "--catalog-dsn", dsn)

	require.NoError(t, err)
	assert.Equal(t, sumForCustomerSQL+"\n", out)
}

func TestCompile_JSON(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.json", sumForCustomerJSON)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), irPath, "--catalog-dsn", dsn)
	require.NoError(t, err)

	var resp struct {
		Status      string            `json:"status"`
		Data        CompilationResult `json:"data"`
		Fingerprint string            `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, sumForCustomerSQL, resp.Data.SQL)
	assert.Equal(t, "SQL generated from validated semantic IR", resp.Data.Explanation)
	assert.Equal(t, resp.Fingerprint, resp.Data.Fingerprint)
}

func TestCompile_OutputFile(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.json", sumForCustomerJSON)
	outPath := filepath.Join(t.TempDir(), "q.sql")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), irPath, "--catalog-dsn", dsn, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled to")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, sumForCustomerSQL+"\n", string(data))
}

func TestCompile_EscapeLiterals(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.yaml", `
intent: select
tables: [customers]
filters:
  - {column: customers.name, operator: "=", value: "O'Brien"}
`)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), irPath, "--catalog-dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers WHERE customers.name = 'O'Brien'\n", out)

	out, _, err = execute(NewCompileCommand(&RootOptions{Format: "text"}), irPath, "--catalog-dsn", dsn, "--escape-literals")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers WHERE customers.name = 'O''Brien'\n", out)
}

func TestCompile_Rejected(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.yaml", `
intent: aggregation
tables: [orders]
dimensions: [customer_id]
`)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), irPath, "--catalog-dsn", dsn)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E202: Ambiguous column reference: 'customer_id'. Must be 'table.column'")
}

func TestCompile_RecordsAudit(t *testing.T) {
	dsn := seedExampleDB(t)
	auditPath := filepath.Join(t.TempDir(), "audit.db")

	_, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}),
		writeFile(t, "ok.json", sumForCustomerJSON), "--catalog-dsn", dsn, "--audit-db", auditPath)
	require.NoError(t, err)
	_, _, err = execute(NewCompileCommand(&RootOptions{Format: "text"}),
		writeFile(t, "bad.json", hallucinatedJSON), "--catalog-dsn", dsn, "--audit-db", auditPath)
	require.Error(t, err)

	st, err := store.Open(auditPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.ReadTranslations(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, store.OutcomeCompiled, records[0].Outcome)
	assert.Equal(t, sumForCustomerSQL, records[0].SQL)
	assert.Equal(t, store.OutcomeRejected, records[1].Outcome)
	assert.Equal(t, "E204", records[1].ErrorCode)
}

func TestCompile_VerboseLogsToStderr(t *testing.T) {
	dsn := seedExampleDB(t)
	irPath := writeFile(t, "q.json", sumForCustomerJSON)

	out, errOut, err := execute(NewCompileCommand(&RootOptions{Format: "json", Verbose: true}), irPath, "--catalog-dsn", dsn)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay valid JSON")
	assert.Contains(t, errOut, "Loaded IR from")
	assert.Contains(t, errOut, "query compiled")
}

func TestCompile_MissingArg(t *testing.T) {
	_, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
