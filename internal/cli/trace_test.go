package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgate/internal/store"
)

// seedAudit writes one compiled, one rejected and one failed record.
func seedAudit(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	records := []store.Translation{
		{ID: "tr-1", RequestID: "req-1", Fingerprint: "fp-a", IR: `{"tables":["orders"]}`, Outcome: store.OutcomeCompiled, SQL: "SELECT * FROM orders"},
		{ID: "tr-2", RequestID: "req-2", Fingerprint: "fp-b", IR: `{"tables":["users"]}`, Outcome: store.OutcomeRejected, ErrorCode: "E201", ErrorMessage: "Unknown table: users"},
		{ID: "tr-3", Fingerprint: "fp-a", IR: `{"tables":["orders"]}`, Outcome: store.OutcomeFailed, ErrorMessage: "database is locked"},
	}
	for _, r := range records {
		_, _, err := st.WriteTranslation(ctx, r)
		require.NoError(t, err)
	}
	return path
}

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", "/nonexistent/path/audit.db")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestTraceEmptyLog(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "audit.db"))

	require.NoError(t, err)
	assert.Contains(t, out, "(no records)")
	assert.Contains(t, out, "Total:    0")
}

func TestTraceTimeline(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", seedAudit(t))

	require.NoError(t, err)
	assert.Contains(t, out, "[1] OK   SELECT * FROM orders")
	assert.Contains(t, out, "[2] REJ  E201 Unknown table: users")
	assert.Contains(t, out, "[3] FAIL database is locked")
	assert.Contains(t, out, "Compiled: 1")
	assert.Contains(t, out, "Rejected: 1")
	assert.Contains(t, out, "Failed:   1")
}

func TestTraceVerboseShowsIR(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", seedAudit(t))

	require.NoError(t, err)
	assert.Contains(t, out, "Request: req-1")
	assert.Contains(t, out, `IR: {"tables":["orders"]}`)
}

func TestTraceByFingerprint(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", seedAudit(t), "--fingerprint", "fp-a")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "fp-a", resp.Data.Fingerprint)
	require.Len(t, resp.Data.Timeline, 2)
	assert.Equal(t, "tr-1", resp.Data.Timeline[0].ID)
	assert.Equal(t, "tr-3", resp.Data.Timeline[1].ID)
	assert.Empty(t, resp.Data.Timeline[0].IR)
	assert.Equal(t, 3, resp.Data.Stats.Total)
}

func TestTraceLimit(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", seedAudit(t), "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 2)
	assert.Equal(t, int64(2), resp.Data.Timeline[0].Seq)
	assert.Equal(t, int64(3), resp.Data.Timeline[1].Seq)
}

func TestTraceByID(t *testing.T) {
	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", seedAudit(t), "--id", "tr-2")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "E201", resp.Data.Timeline[0].ErrorCode)
	assert.Equal(t, `{"tables":["users"]}`, resp.Data.Timeline[0].IR)
}

func TestTraceUnknownID(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", seedAudit(t), "--id", "tr-99")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no record with id tr-99")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "tr-1", truncateID("tr-1"))
	assert.Equal(t, "0192f3a1...9c0d1e2f", truncateID("0192f3a1-7b2c-7d3e-8f40-5a6b9c0d1e2f"))
}
