package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirRepo creates a temp dir holding a .git marker and changes into it.
func chdirRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	require.NoError(t, os.Chdir(root))
	return root
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := chdirRepo(t)
	configPath := filepath.Join(root, "semsql.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("layer: x.yaml\n"), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.Chdir(nested))

	path, err := findConfigFile("")
	require.NoError(t, err)

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expected, _ := filepath.EvalSymlinks(configPath)
	actual, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, expected, actual)
}

func TestFindConfigFile_StopsAtRepoRoot(t *testing.T) {
	chdirRepo(t)

	path, err := findConfigFile("")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindConfigFile_ExplicitMissing(t *testing.T) {
	_, err := findConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirRepo(t)
	t.Setenv("SEMSQL_LAYER", "")
	t.Setenv("SEMSQL_FORMAT", "")

	cfg, configPath, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Empty(t, configPath)
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Layer)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_FromFile(t *testing.T) {
	root := chdirRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "semsql.yaml"), []byte(`
layer: layers/retail.yaml
history: ./semsql.db
verbose: true
`), 0o644))

	cfg, _, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "layers/retail.yaml", cfg.Layer)
	assert.Equal(t, "./semsql.db", cfg.History)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "text", cfg.Format)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	root := chdirRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "semsql.yaml"), []byte("layer: from-file.yaml\n"), 0o644))
	t.Setenv("SEMSQL_LAYER", "from-env.yaml")

	cfg, _, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", cfg.Layer)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	chdirRepo(t)
	t.Setenv("SEMSQL_LAYER", "from-env.yaml")
	t.Setenv("SEMSQL_FORMAT", "json")

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("layer", "", "")
	cmd.Flags().String("format", "text", "")
	require.NoError(t, cmd.Flags().Set("layer", "from-flag.yaml"))

	cfg, _, err := LoadConfig("", cmd)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.yaml", cfg.Layer)
	// An unset flag does not shadow the environment.
	assert.Equal(t, "json", cfg.Format)
}
