package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/history"
	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Fingerprint string // optional - one query only
}

// ReplayRecordResult holds the replay result for a single record.
type ReplayRecordResult struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Recorded  string `json:"recorded"`
	Replayed  string `json:"replayed"`
	Unchanged bool   `json:"unchanged"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Records      []ReplayRecordResult `json:"records"`
	TotalRecords int                  `json:"total_records"`
	Drifted      int                  `json:"drifted"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompile recorded queries and detect SQL drift",
		Long: `Recompile every recorded query against the current semantic layer.

Each record's outcome (its SQL, or its error code) is compared with a fresh
compilation. A difference means the layer or the compiler changed the
meaning of a previously compiled query.

Exit codes:
  0 - Every outcome is unchanged
  1 - One or more outcomes drifted
  2 - Command error (no layer, history unavailable)

Examples:
  semsql replay --layer retail.yaml --history ./semsql.db
  semsql replay --layer retail.yaml --history ./semsql.db --fingerprint 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "replay one query fingerprint only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	layer, err := loadLayer(formatter, opts.Layer)
	if err != nil {
		return err
	}
	st, err := openHistory(ctx, formatter, opts.History)
	if err != nil {
		return err
	}
	defer st.Close()

	var records []history.Record
	if opts.Fingerprint != "" {
		records, err = st.ByFingerprint(ctx, opts.Fingerprint)
	} else {
		records, err = st.List(ctx, 0)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}

	compiler := querysql.NewCompiler(layer)
	result := ReplayResult{
		Records:      make([]ReplayRecordResult, 0, len(records)),
		TotalRecords: len(records),
	}
	for _, rec := range records {
		r := replayRecord(compiler, rec)
		formatter.VerboseLog("Replayed %s: unchanged=%t", rec.ID, r.Unchanged)
		if !r.Unchanged {
			result.Drifted++
		}
		result.Records = append(result.Records, r)
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayRecord recompiles the record's IR. Outcomes are compared as the
// SQL text, or "error: CODE" for rejected queries.
func replayRecord(compiler *querysql.Compiler, rec history.Record) ReplayRecordResult {
	recorded := rec.SQL
	if rec.Status == history.StatusError {
		recorded = "error: " + rec.ErrorCode
	}

	var replayed string
	q, err := queryir.Decode([]byte(rec.IR))
	if err == nil {
		replayed, err = compiler.Compile(q)
	}
	if err != nil {
		code := string(querysql.CodeOf(err))
		if code == "" {
			code = ErrCodeGeneric
		}
		replayed = "error: " + code
	}

	return ReplayRecordResult{
		ID:        rec.ID,
		Seq:       rec.Seq,
		Recorded:  recorded,
		Replayed:  replayed,
		Unchanged: recorded == replayed,
	}
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	resp := CLIResponse{Status: "ok", Data: result}
	if result.Drifted > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeDrift,
			Message: fmt.Sprintf("%d record(s) drifted", result.Drifted),
		}
	}
	if err := formatter.encode(resp); err != nil {
		return err
	}
	if result.Drifted > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) drifted", result.Drifted))
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	if result.TotalRecords == 0 {
		fmt.Fprintln(w, "No compilations recorded.")
		return nil
	}

	for _, r := range result.Records {
		if r.Unchanged {
			if formatter.Verbose {
				fmt.Fprintf(w, "✓ %d %s\n", r.Seq, r.ID)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %d %s\n", r.Seq, r.ID)
		fmt.Fprintf(w, "  recorded:\n%s\n", indent(r.Recorded))
		fmt.Fprintf(w, "  replayed:\n%s\n", indent(r.Replayed))
	}

	fmt.Fprintf(w, "Replay Summary: %d unchanged, %d drifted, %d total\n",
		result.TotalRecords-result.Drifted, result.Drifted, result.TotalRecords)
	if result.Drifted > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) drifted", result.Drifted))
	}
	return nil
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
