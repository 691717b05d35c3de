package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenariosMatchGolden(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunDetectsSQLMismatch(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "region_in.yaml"))
	require.NoError(t, err)
	s.Expect.SQL = "SELECT 1;"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "SQL mismatch")
}

func TestRunDetectsUnexpectedSuccess(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "region_in.yaml"))
	require.NoError(t, err)
	s.Expect = Expect{Error: "UNKNOWN_ENTITY"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error UNKNOWN_ENTITY, got SQL")
}

func TestRunDetectsWrongErrorCode(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "unknown_entity.yaml"))
	require.NoError(t, err)
	s.Expect = Expect{Error: "MALFORMED_INPUT"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "UNKNOWN_ENTITY", result.ErrorCode)
}

func TestRunDetectsUnexpectedError(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "unknown_entity.yaml"))
	require.NoError(t, err)
	s.Expect = Expect{SQL: "SELECT 1;"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected SQL, got error")
}

func TestRunBadQuery(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "region_in.yaml"))
	require.NoError(t, err)
	s.Query = map[string]any{"filters": map[string]any{"entity": "region"}}

	_, err = Run(s)
	assert.Error(t, err)
}

func TestResultOutcome(t *testing.T) {
	assert.Equal(t, "SELECT *;\n", (&Result{SQL: "SELECT *;"}).Outcome())
	assert.Equal(t, "error: MALFORMED_INPUT\n", (&Result{ErrorCode: "MALFORMED_INPUT"}).Outcome())
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	layer, err := filepath.Abs(filepath.Join("testdata", "layers", "retail.yaml"))
	require.NoError(t, err)
	body = "layer: " + layer + "\n" + body
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", "description: d\nquery: {}\nexpect: {sql: x}\n", "name is required"},
		{"missing description", "name: n\nquery: {}\nexpect: {sql: x}\n", "description is required"},
		{"missing query", "name: n\ndescription: d\nexpect: {sql: x}\n", "query is required"},
		{"missing expect", "name: n\ndescription: d\nquery: {}\n", "one of sql or error"},
		{"both expects", "name: n\ndescription: d\nquery: {}\nexpect: {sql: x, error: UNKNOWN_ENTITY}\n", "mutually exclusive"},
		{"unknown code", "name: n\ndescription: d\nquery: {}\nexpect: {error: OOPS}\n", "unknown error code"},
		{"unknown field", "name: n\ndescription: d\nquery: {}\nexpects: {sql: x}\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	body := "name: n\ndescription: d\nlayer: nowhere.yaml\nquery: {}\nexpect: {sql: x}\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer file not found")
}

func TestLoadScenarioResolvesLayerPath(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "top_products.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "layers", "retail.yaml"), s.Layer)
}

func TestLoadScenariosRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	layer, err := filepath.Abs(filepath.Join("testdata", "layers", "retail.yaml"))
	require.NoError(t, err)
	body := "name: same\ndescription: d\nlayer: " + layer + "\nquery: {}\nexpect: {sql: x}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(body), 0o644))

	_, err = LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario name")
}
