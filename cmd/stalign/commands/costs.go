package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/scoring"
)

func newCostsCommand(opts *globalOptions) *cobra.Command {
	var format, initPath string

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show or initialize the cost table",
		Long: `Print the effective alignment and edit distance costs, after the cost file
and the STALIGN_COSTS_* environment variables are applied.

With --init, write the default costs to a new file instead. Files ending in
.yaml or .yml are written as YAML, anything else as KEY=VALUE lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if initPath != "" {
				err := scoring.WriteDefaults(initPath)
				if err != nil {
					return err
				}

				color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "default costs written to %s\n", initPath)

				return nil
			}

			return run(cmd, opts, observability.ModeCLI, func(_ context.Context, sess *session) error {
				costs := sess.model.Costs()

				return writeOutput(cmd.OutOrStdout(), "", sess.format(format), costs, func(w io.Writer) error {
					return writeCostsTable(w, costs)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (text, json, yaml)")
	cmd.Flags().StringVar(&initPath, "init", "", "write the default costs to this file")

	return cmd
}

func writeCostsTable(w io.Writer, costs scoring.Costs) error {
	defaults := scoring.DefaultCosts().Entries()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Key", "Value", "Default"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	for idx, entry := range costs.Entries() {
		tw.AppendRow(table.Row{entry.Key, formatFloat(entry.Value), formatFloat(defaults[idx].Value)})
	}

	_, err := io.WriteString(w, tw.Render()+"\n")
	if err != nil {
		return fmt.Errorf("write costs: %w", err)
	}

	return nil
}
