package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semsql/internal/semantic"
)

// EntityListing is the JSON payload of the entities command.
type EntityListing struct {
	Metrics     []EntityInfo `json:"metrics"`
	Attributes  []EntityInfo `json:"attributes"`
	ForeignKeys int          `json:"foreign_keys"`
}

// EntityInfo describes one entity of the layer.
type EntityInfo struct {
	semantic.Entity
	EnumValues []string `json:"enum_values,omitempty"`
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List the metrics and attributes of the semantic layer",
		Long: `List the entities a query may reference.

Metrics are derived expressions and entities typed as metrics. Attributes are
plain columns, suitable for filtering and grouping; declared enum values are
shown next to them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(rootOpts, cmd)
		},
	}
	return cmd
}

func runEntities(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	layer, err := loadLayer(formatter, opts.Layer)
	if err != nil {
		return err
	}

	listing := EntityListing{
		Metrics:     describe(layer, layer.Metrics()),
		Attributes:  describe(layer, layer.Attributes()),
		ForeignKeys: len(layer.ForeignKeys()),
	}

	if formatter.JSON() {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Metrics (%d):\n", len(listing.Metrics))
	for _, e := range listing.Metrics {
		writeEntity(formatter, e)
	}
	fmt.Fprintf(w, "\nAttributes (%d):\n", len(listing.Attributes))
	for _, e := range listing.Attributes {
		writeEntity(formatter, e)
	}
	return nil
}

// describe looks up names in layer. Names come from the layer itself, so
// every lookup succeeds.
func describe(layer *semantic.Layer, names []string) []EntityInfo {
	out := make([]EntityInfo, 0, len(names))
	for _, name := range names {
		e, _ := layer.Entity(name)
		out = append(out, EntityInfo{Entity: e, EnumValues: layer.EnumValues(name)})
	}
	return out
}

func writeEntity(f *OutputFormatter, e EntityInfo) {
	source := e.Expression
	if !e.IsDerived() {
		source = e.Table + "." + e.Column
	}
	fmt.Fprintf(f.Writer, "  %s: %s\n", e.Name, source)
	if e.Description != "" {
		fmt.Fprintf(f.Writer, "      %s\n", e.Description)
	}
	if len(e.EnumValues) > 0 {
		fmt.Fprintf(f.Writer, "      values: %s\n", strings.Join(e.EnumValues, ", "))
	}
}
