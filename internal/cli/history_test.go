package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semsql/internal/history"
)

// seedHistory compiles top_products and unknown_entity into a fresh log.
func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer, History: dbPath}

	_, err := execute(t, newCompileCommand(&CompileOptions{
		RootOptions: rootOpts,
		Question:    "top products?",
		IDGenerator: history.NewFixedGenerator("rec-1"),
	}), queryFile("top_products"))
	require.NoError(t, err)

	_, err = execute(t, newCompileCommand(&CompileOptions{
		RootOptions: rootOpts,
		IDGenerator: history.NewFixedGenerator("rec-2"),
	}), queryFile("unknown_entity"))
	require.Error(t, err)

	return dbPath
}

func TestHistoryMissingDatabase(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewHistoryCommand(rootOpts))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoHistory)
}

func TestHistoryEmpty(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", History: filepath.Join(t.TempDir(), "empty.db")}
	out, err := execute(t, NewHistoryCommand(rootOpts))
	require.NoError(t, err)
	assert.Contains(t, out, "No compilations recorded.")
}

func TestHistoryListText(t *testing.T) {
	dbPath := seedHistory(t)

	rootOpts := &RootOptions{Format: "text", History: dbPath}
	out, err := execute(t, NewHistoryCommand(rootOpts))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "rec-2")
	assert.Contains(t, lines[0], "UNKNOWN_ENTITY")
	assert.Contains(t, lines[1], "rec-1")
	assert.Contains(t, lines[1], "SELECT t2.name")
}

func TestHistoryListJSONLimit(t *testing.T) {
	dbPath := seedHistory(t)

	rootOpts := &RootOptions{Format: "json", History: dbPath}
	out, err := execute(t, NewHistoryCommand(rootOpts), "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Data []history.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "rec-2", resp.Data[0].ID)
}

func TestHistoryByFingerprint(t *testing.T) {
	dbPath := seedHistory(t)

	st, err := history.Open(t.Context(), dbPath)
	require.NoError(t, err)
	rec, err := st.Get(t.Context(), "rec-1")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	rootOpts := &RootOptions{Format: "json", History: dbPath}
	out, err := execute(t, NewHistoryCommand(rootOpts), "--fingerprint", rec.Fingerprint)
	require.NoError(t, err)

	var resp struct {
		Data []history.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "rec-1", resp.Data[0].ID)
}

func TestHistoryShowRecord(t *testing.T) {
	dbPath := seedHistory(t)

	rootOpts := &RootOptions{Format: "text", History: dbPath}
	out, err := execute(t, NewHistoryCommand(rootOpts), "--id", "rec-1")
	require.NoError(t, err)
	assert.Contains(t, out, "ID:          rec-1")
	assert.Contains(t, out, "Question:    top products?")
	assert.Contains(t, out, "SQL:\n"+topProductsSQL+"\n")

	out, err = execute(t, NewHistoryCommand(rootOpts), "--id", "rec-2")
	require.NoError(t, err)
	assert.Contains(t, out, "Error:       UNKNOWN_ENTITY: ")
}

func TestHistoryShowMissingRecord(t *testing.T) {
	dbPath := seedHistory(t)

	rootOpts := &RootOptions{Format: "text", History: dbPath}
	out, err := execute(t, NewHistoryCommand(rootOpts), "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no record with id nope")
}

func TestReplayUnchanged(t *testing.T) {
	dbPath := seedHistory(t)

	rootOpts := &RootOptions{Format: "text", Layer: retailLayer, History: dbPath}
	out, err := execute(t, NewReplayCommand(rootOpts))
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 unchanged, 0 drifted, 2 total")
}

func TestReplayDetectsDrift(t *testing.T) {
	dbPath := seedHistory(t)

	// Remap product_name to another column; the rejected query stays rejected.
	data, err := os.ReadFile(retailLayer)
	require.NoError(t, err)
	changed := strings.Replace(string(data), "{table: products, column: name}", "{table: products, column: title}", 1)
	require.NotEqual(t, string(data), changed)
	layerPath := filepath.Join(t.TempDir(), "retail.yaml")
	require.NoError(t, os.WriteFile(layerPath, []byte(changed), 0o644))

	rootOpts := &RootOptions{Format: "json", Layer: layerPath, History: dbPath}
	out, err := execute(t, NewReplayCommand(rootOpts))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDrift, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.TotalRecords)
	assert.Equal(t, 1, resp.Data.Drifted)

	byID := map[string]ReplayRecordResult{}
	for _, r := range resp.Data.Records {
		byID[r.ID] = r
	}
	assert.False(t, byID["rec-1"].Unchanged)
	assert.Contains(t, byID["rec-1"].Replayed, "SELECT t2.title")
	assert.True(t, byID["rec-2"].Unchanged)
	assert.Equal(t, "error: UNKNOWN_ENTITY", byID["rec-2"].Replayed)
}

func TestReplayKeepsDecomposedLiterals(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer, History: dbPath}

	// "José" with a combining acute accent (NFD).
	decomposed := "Jose\u0301"
	query := `{"projections": [{"entity": "customer_name"}],
	  "filters": {"operator": "AND", "conditions": [{"entity": "region", "op": "EQUAL", "value": "` + decomposed + `"}]}}`

	out, err := executeStdin(t, newCompileCommand(&CompileOptions{
		RootOptions: rootOpts,
		IDGenerator: history.NewFixedGenerator("rec-nfd"),
	}), query)
	require.NoError(t, err)
	assert.Contains(t, out, "t1.region = '"+decomposed+"'")

	st, err := history.Open(t.Context(), dbPath)
	require.NoError(t, err)
	rec, err := st.Get(t.Context(), "rec-nfd")
	require.NoError(t, err)
	require.NoError(t, st.Close())
	assert.Contains(t, rec.IR, decomposed)

	out, err = execute(t, NewReplayCommand(rootOpts))
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 unchanged, 0 drifted, 1 total")
}

func TestReplayEmpty(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer, History: filepath.Join(t.TempDir(), "empty.db")}
	out, err := execute(t, NewReplayCommand(rootOpts))
	require.NoError(t, err)
	assert.Contains(t, out, "No compilations recorded.")
}
