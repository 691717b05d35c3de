package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/queryir"
	"github.com/roach88/semsql/internal/querysql"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                      `json:"valid"`
	Errors []queryir.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.json|->",
		Short: "Validate a query IR document",
		Long: `Check a query IR document for structural problems without compiling it.

Reports every problem found: projections without entities, empty filter
groups, invalid directions, negative limits and so on. When a semantic layer
is configured the query is also compiled against it, so unknown entities and
unsupported operators are reported too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	q, err := readQuery(formatter, cmd, input)
	if err != nil {
		return err
	}

	if errs := queryir.Validate(q); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	if opts.Layer != "" {
		layer, err := loadLayer(formatter, opts.Layer)
		if err != nil {
			return err
		}
		if _, err := querysql.NewCompiler(layer).Plan(q); err != nil {
			return compileFailure(formatter, err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Query is valid")
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, errs []queryir.ValidationError) error {
	message := fmt.Sprintf("validation failed: %d error(s)", len(errs))

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: ErrCodeInvalidQuery, Message: message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	fmt.Fprintf(formatter.Writer, "✗ Validation failed with %d error(s):\n\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  [%s] %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, message)
}
