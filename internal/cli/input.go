package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/history"
	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
	"github.com/roach88/semsql/internal/semantic"
)

// loadLayer loads the configured semantic layer. Failures are reported
// through f and returned as command errors.
func loadLayer(f *OutputFormatter, path string) (*semantic.Layer, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeNoLayer, "no semantic layer: pass --layer or set SEMSQL_LAYER", nil)
	}

	layer, err := semantic.Load(path)
	if err != nil {
		var le *semantic.LoadError
		if errors.As(err, &le) {
			return nil, f.Fail(ExitCommandError, le.Code, le.Error(), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	f.VerboseLog("Loaded %d entities from %s", len(layer.EntityNames()), path)
	slog.Debug("semantic layer loaded", "path", path, "entities", len(layer.EntityNames()), "foreign_keys", len(layer.ForeignKeys()))
	return layer, nil
}

// readQuery reads an IR document from a file, or from stdin when arg is "-".
func readQuery(f *OutputFormatter, cmd *cobra.Command, arg string) (*queryir.Query, error) {
	var (
		data []byte
		err  error
	)
	if arg == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading query: %v", err), nil)
	}

	q, err := queryir.Decode(data)
	if err != nil {
		var ve queryir.ValidationError
		if errors.As(err, &ve) {
			return nil, f.Fail(ExitFailure, ve.Code, ve.Message, map[string]string{"field": ve.Field})
		}
		return nil, f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	return q, nil
}

// compileFailure reports a compile error with its own code.
func compileFailure(f *OutputFormatter, err error) error {
	var ce *querysql.CompileError
	if !errors.As(err, &ce) {
		return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	message := ce.Message
	details := make(map[string]string, len(ce.Details)+1)
	for k, v := range ce.Details {
		details[k] = v
	}
	if ce.Name != "" {
		message = fmt.Sprintf("%s: %s", ce.Message, ce.Name)
		details["name"] = ce.Name
	}
	return f.Fail(ExitFailure, string(ce.Code), message, details)
}

// openHistory opens the compilation log. An empty DSN is a command error.
func openHistory(ctx context.Context, f *OutputFormatter, dsn string) (*history.Store, error) {
	if dsn == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeNoHistory, "no history database: pass --history or set SEMSQL_HISTORY", nil)
	}
	st, err := history.Open(ctx, dsn)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeHistory, fmt.Sprintf("opening history: %v", err), nil)
	}
	slog.Debug("history opened", "dialect", st.Dialect())
	return st, nil
}
