package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/semsql/internal/querysql"
	"github.com/roach88/semsql/internal/semantic"
)

// Run compiles a scenario's query against its layer and checks the outcome.
//
// Compile failures are part of the result, not returned errors. The returned
// error is reserved for scenarios that cannot run at all: an unloadable
// layer or an undecodable query.
func Run(scenario *Scenario) (*Result, error) {
	layer, err := semantic.Load(scenario.Layer)
	if err != nil {
		return nil, fmt.Errorf("failed to load layer: %w", err)
	}

	q, err := scenario.IR()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	sql, err := querysql.NewCompiler(layer).Compile(q)
	if err != nil {
		var ce *querysql.CompileError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.ErrorCode = string(ce.Code)
		result.ErrorMessage = err.Error()
	} else {
		result.SQL = sql
	}

	for _, msg := range checkExpect(scenario.Expect, result) {
		result.AddError(msg)
	}
	return result, nil
}

// checkExpect compares a result against the expectation.
func checkExpect(expect Expect, result *Result) []string {
	var errs []string

	if expect.Error != "" {
		switch result.ErrorCode {
		case expect.Error:
		case "":
			errs = append(errs, fmt.Sprintf("expected error %s, got SQL:\n%s", expect.Error, result.SQL))
		default:
			errs = append(errs, fmt.Sprintf("expected error %s, got %s", expect.Error, result.ErrorMessage))
		}
		return errs
	}

	if result.ErrorCode != "" {
		return append(errs, fmt.Sprintf("expected SQL, got error: %s", result.ErrorMessage))
	}
	if want := strings.TrimSpace(expect.SQL); result.SQL != want {
		errs = append(errs, fmt.Sprintf("SQL mismatch:\nwant:\n%s\ngot:\n%s", want, result.SQL))
	}
	return errs
}
