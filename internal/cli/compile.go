package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/history"
	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Question string // natural-language question the IR answers, logged only
	ShowIR   bool   // include the decoded IR in the JSON envelope

	// IDGenerator allows overriding history record IDs (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator history.IDGenerator
}

// Envelope is the JSON payload of a compile run.
type Envelope struct {
	Question    string         `json:"question,omitempty"`
	SQL         string         `json:"sql"`
	Status      history.Status `json:"status"`
	Fingerprint string         `json:"fingerprint"`
	IR          *queryir.Query `json:"ir,omitempty"`
	RecordID    string         `json:"record_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return newCompileCommand(&CompileOptions{RootOptions: rootOpts})
}

func newCompileCommand(opts *CompileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <query.json|->",
		Short: "Compile a query IR document to SQL",
		Long: `Compile a JSON query IR document to a SQL SELECT statement.

The query is resolved against the semantic layer given by --layer. Text output
is the bare SQL statement. JSON output wraps it in an envelope carrying the
question, status and query fingerprint.

When --history is set, every compilation (successful or not) is recorded.

Exit codes:
  0 - Query compiled
  1 - Query rejected (unknown entity, unsupported operator, ...)
  2 - Command error (no layer, unreadable input, history unavailable)

Examples:
  semsql compile --layer retail.yaml query.json
  cat query.json | semsql compile --layer retail.yaml -
  semsql compile --layer retail.yaml --format json --question "top products?" query.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "question the query answers (recorded in history)")
	cmd.Flags().BoolVar(&opts.ShowIR, "show-ir", false, "include the decoded IR in JSON output")

	return cmd
}

func runCompile(opts *CompileOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	layer, err := loadLayer(formatter, opts.Layer)
	if err != nil {
		return err
	}
	q, err := readQuery(formatter, cmd, input)
	if err != nil {
		return err
	}

	fingerprint, err := queryir.Fingerprint(q)
	if err != nil {
		return formatter.Fail(ExitFailure, string(querysql.ErrCodeMalformedInput), err.Error(), nil)
	}

	sql, compileErr := querysql.NewCompiler(layer).Compile(q)

	var recordID string
	if opts.History != "" {
		recordID, err = recordCompilation(cmd, opts, q, fingerprint, sql, compileErr)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
		}
	}

	if compileErr != nil {
		slog.Debug("compile rejected", "fingerprint", fingerprint, "error", compileErr)
		return compileFailure(formatter, compileErr)
	}
	slog.Debug("compiled", "fingerprint", fingerprint, "bytes", len(sql))

	if !formatter.JSON() {
		fmt.Fprintln(formatter.Writer, sql)
		return nil
	}

	env := Envelope{
		Question:    opts.Question,
		SQL:         sql,
		Status:      history.StatusOK,
		Fingerprint: fingerprint,
		RecordID:    recordID,
	}
	if opts.ShowIR {
		env.IR = q
	}
	return formatter.Success(env)
}

// recordCompilation writes one record to the history log and returns its ID.
func recordCompilation(cmd *cobra.Command, opts *CompileOptions, q *queryir.Query, fingerprint, sql string, compileErr error) (string, error) {
	ctx := cmd.Context()

	st, err := history.Open(ctx, opts.History)
	if err != nil {
		return "", fmt.Errorf("opening history: %w", err)
	}
	defer st.Close()

	// Record.IR keeps literals as written; only the fingerprint is canonical.
	ir, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}

	gen := opts.IDGenerator
	if gen == nil {
		gen = history.UUIDv7Generator{}
	}

	rec := history.Record{
		ID:          gen.Generate(),
		Fingerprint: fingerprint,
		Question:    opts.Question,
		IR:          string(ir),
		SQL:         sql,
		Status:      history.StatusOK,
	}
	if compileErr != nil {
		rec.Status = history.StatusError
		rec.ErrorCode = string(querysql.CodeOf(compileErr))
		rec.ErrorMessage = compileErr.Error()
		if rec.ErrorCode == "" {
			rec.ErrorCode = ErrCodeGeneric
		}
	}

	seq, err := st.Write(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("recording compilation: %w", err)
	}
	slog.Info("compilation recorded", "id", rec.ID, "seq", seq, "status", rec.Status)
	return rec.ID, nil
}
