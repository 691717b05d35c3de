package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semsql/internal/history"
	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
)

// compileResponse mirrors CLIResponse with a typed payload.
type compileResponse struct {
	Status string    `json:"status"`
	Data   Envelope  `json:"data"`
	Error  *CLIError `json:"error"`
}

func TestCompileText(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("top_products"))
	require.NoError(t, err)
	assert.Equal(t, topProductsSQL+"\n", out)
}

func TestCompileFromStdin(t *testing.T) {
	data, err := os.ReadFile(queryFile("top_products"))
	require.NoError(t, err)

	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := executeStdin(t, NewCompileCommand(rootOpts), string(data))
	require.NoError(t, err)
	assert.Equal(t, topProductsSQL+"\n", out)
}

func TestCompileJSONEnvelope(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), "--question", "What are the top 5 products?", "--show-ir", queryFile("top_products"))
	require.NoError(t, err)

	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "What are the top 5 products?", resp.Data.Question)
	assert.Equal(t, topProductsSQL, resp.Data.SQL)
	assert.Equal(t, history.StatusOK, resp.Data.Status)
	assert.Len(t, resp.Data.Fingerprint, 64)
	require.NotNil(t, resp.Data.IR)
	assert.Equal(t, "top products by sales", resp.Data.IR.Intent)
	assert.Empty(t, resp.Data.RecordID)
}

func TestCompileFingerprintIgnoresFormatting(t *testing.T) {
	data, err := os.ReadFile(queryFile("top_products"))
	require.NoError(t, err)
	q, err := queryir.Decode(data)
	require.NoError(t, err)
	compact, err := json.Marshal(q)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "compact.json")
	require.NoError(t, os.WriteFile(path, compact, 0o644))

	fingerprintOf := func(file string) string {
		rootOpts := &RootOptions{Format: "json", Layer: retailLayer}
		out, err := execute(t, NewCompileCommand(rootOpts), file)
		require.NoError(t, err)
		var resp compileResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Fingerprint
	}
	assert.Equal(t, fingerprintOf(queryFile("top_products")), fingerprintOf(path))
}

func TestCompileUnknownEntity(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("unknown_entity"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), string(querysql.ErrCodeUnknownEntity))
	assert.Contains(t, out, "Error [UNKNOWN_ENTITY]")
	assert.Contains(t, out, "profit_margin")
}

func TestCompileUnknownEntityJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("unknown_entity"))
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_ENTITY", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "profit_margin", details["name"])
}

func TestCompileMalformedDocument(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("malformed"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, queryir.ErrMalformedDocument)
}

func TestCompileStructurallyInvalid(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MALFORMED_INPUT]")
}

func TestCompileMissingLayer(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("top_products"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoLayer)
}

func TestCompileLayerNotFound(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: "testdata/absent.yaml"}
	out, err := execute(t, NewCompileCommand(rootOpts), queryFile("top_products"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E301")
}

func TestCompileMissingInputFile(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Layer: retailLayer}
	out, err := execute(t, NewCompileCommand(rootOpts), "testdata/queries/absent.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeReadFailed)
}

func TestCompileRecordsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rootOpts := &RootOptions{Format: "json", Layer: retailLayer, History: dbPath}

	ok := newCompileCommand(&CompileOptions{
		RootOptions: rootOpts,
		IDGenerator: history.NewFixedGenerator("rec-ok"),
	})
	out, err := execute(t, ok, "--question", "top products?", queryFile("top_products"))
	require.NoError(t, err)
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "rec-ok", resp.Data.RecordID)

	failed := newCompileCommand(&CompileOptions{
		RootOptions: rootOpts,
		IDGenerator: history.NewFixedGenerator("rec-err"),
	})
	_, err = execute(t, failed, queryFile("unknown_entity"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := history.Open(t.Context(), dbPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "rec-err", records[0].ID)
	assert.Equal(t, history.StatusError, records[0].Status)
	assert.Equal(t, "UNKNOWN_ENTITY", records[0].ErrorCode)
	assert.Empty(t, records[0].SQL)

	assert.Equal(t, "rec-ok", records[1].ID)
	assert.Equal(t, history.StatusOK, records[1].Status)
	assert.Equal(t, "top products?", records[1].Question)
	assert.Equal(t, topProductsSQL, records[1].SQL)
	assert.Equal(t, resp.Data.Fingerprint, records[1].Fingerprint)

	q, err := queryir.Decode([]byte(records[1].IR))
	require.NoError(t, err)
	fp, err := queryir.Fingerprint(q)
	require.NoError(t, err)
	assert.Equal(t, records[1].Fingerprint, fp)
}
