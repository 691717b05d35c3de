package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const maxWalkDepth = 25

// configNames are the file names searched for during auto-discovery.
var configNames = []string{"semsql.yaml", "semsql.yml"}

// Config is the resolved global configuration.
type Config struct {
	// Layer is the semantic layer file (.yaml, .json or .cue).
	Layer string `mapstructure:"layer"`

	// History is the compilation log DSN: a SQLite path or a postgres:// URL.
	History string `mapstructure:"history"`

	Format  string `mapstructure:"format"`
	Verbose bool   `mapstructure:"verbose"`
}

// LoadConfig resolves configuration with precedence flags > env > config
// file > defaults. Flags are read from cmd when it is non-nil; only flags
// the user actually set override lower layers.
//
// Returns the loaded config and the config file path (empty if none found).
func LoadConfig(explicitConfigPath string, cmd *cobra.Command) (*Config, string, error) {
	v := viper.New()

	v.SetDefault("layer", "")
	v.SetDefault("history", "")
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("SEMSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	if cmd != nil {
		for _, key := range []string{"layer", "history", "format", "verbose"} {
			if flag := cmd.Flags().Lookup(key); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, configPath, fmt.Errorf("binding flag %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, configPath, nil
}

// findConfigFile returns explicitPath if given (it must exist). Otherwise it
// walks up from the working directory looking for semsql.yaml, stopping at a
// .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
