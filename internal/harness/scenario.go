package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
)

// Scenario defines one compilation check.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Layer is the path of the semantic layer file, relative to the
	// scenario file.
	Layer string `yaml:"layer"`

	// Query is the IR document, written as YAML.
	Query map[string]any `yaml:"query"`

	// Expect is the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the outcome of a scenario. Exactly one of SQL and Error
// is set.
type Expect struct {
	// SQL is the exact expected statement. Surrounding whitespace is ignored.
	SQL string `yaml:"sql,omitempty"`

	// Error is the expected compile error code (e.g. UNKNOWN_ENTITY).
	Error string `yaml:"error,omitempty"`
}

var errorCodes = []querysql.ErrorCode{
	querysql.ErrCodeUnknownEntity,
	querysql.ErrCodeUnsupportedOperator,
	querysql.ErrCodeDisconnectedJoinGraph,
	querysql.ErrCodeMalformedInput,
}

// IR converts the scenario's YAML query into the IR.
func (s *Scenario) IR() (*queryir.Query, error) {
	data, err := json.Marshal(s.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: encode query: %w", s.Name, err)
	}
	q, err := queryir.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return q, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The layer path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Layer != "" && !filepath.IsAbs(scenario.Layer) {
		scenario.Layer = filepath.Join(filepath.Dir(path), scenario.Layer)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, path)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Layer == "" {
		return fmt.Errorf("layer is required")
	}
	if _, err := os.Stat(s.Layer); os.IsNotExist(err) {
		return fmt.Errorf("layer file not found: %s", s.Layer)
	}
	if s.Query == nil {
		return fmt.Errorf("query is required")
	}

	switch {
	case s.Expect.SQL == "" && s.Expect.Error == "":
		return fmt.Errorf("expect: one of sql or error is required")
	case s.Expect.SQL != "" && s.Expect.Error != "":
		return fmt.Errorf("expect: sql and error are mutually exclusive")
	case s.Expect.Error != "" && !slices.Contains(errorCodes, querysql.ErrorCode(s.Expect.Error)):
		return fmt.Errorf("expect: unknown error code %q", s.Expect.Error)
	}
	return nil
}
