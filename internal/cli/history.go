package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit       int
	Fingerprint string
	ID          string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded compilations",
		Long: `Show compilations recorded with compile --history.

By default the most recent records are listed, newest first. Use
--fingerprint to list every compilation of one query (oldest first) or --id
to show a single record in full.

Examples:
  semsql history --history ./semsql.db
  semsql history --history ./semsql.db --limit 5
  semsql history --history ./semsql.db --id 0190a5e2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum records to list (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "list compilations of one query fingerprint")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one record")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openHistory(ctx, formatter, opts.History)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.ID != "" {
		rec, err := st.Get(ctx, opts.ID)
		if errors.Is(err, history.ErrNotFound) {
			return formatter.Fail(ExitFailure, ErrCodeHistory, fmt.Sprintf("no record with id %s", opts.ID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
		}
		if formatter.JSON() {
			return formatter.Success(rec)
		}
		writeRecord(formatter, rec)
		return nil
	}

	var records []history.Record
	if opts.Fingerprint != "" {
		records, err = st.ByFingerprint(ctx, opts.Fingerprint)
	} else {
		records, err = st.List(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}
	if records == nil {
		records = []history.Record{}
	}

	if formatter.JSON() {
		return formatter.Success(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No compilations recorded.")
		return nil
	}
	for _, rec := range records {
		outcome := firstLine(rec.SQL)
		if rec.Status == history.StatusError {
			outcome = rec.ErrorCode
		}
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-5s  %s  %s\n", rec.Seq, rec.ID, rec.Status, shortFingerprint(rec.Fingerprint), outcome)
	}
	return nil
}

func writeRecord(f *OutputFormatter, rec history.Record) {
	w := f.Writer
	fmt.Fprintf(w, "ID:          %s\n", rec.ID)
	fmt.Fprintf(w, "Seq:         %d\n", rec.Seq)
	fmt.Fprintf(w, "Fingerprint: %s\n", rec.Fingerprint)
	if rec.Question != "" {
		fmt.Fprintf(w, "Question:    %s\n", rec.Question)
	}
	fmt.Fprintf(w, "Status:      %s\n", rec.Status)
	fmt.Fprintf(w, "IR:          %s\n", rec.IR)
	if rec.Status == history.StatusError {
		fmt.Fprintf(w, "Error:       %s: %s\n", rec.ErrorCode, rec.ErrorMessage)
		return
	}
	fmt.Fprintf(w, "SQL:\n%s\n", rec.SQL)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
