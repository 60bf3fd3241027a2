package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
)

// inspectView is the JSON and YAML form of the inspect command output.
type inspectView struct {
	Name     string          `json:"name"     yaml:"name"`
	Bonds    int             `json:"bonds"    yaml:"bonds"`
	Analysis *stree.Analysis `json:"analysis" yaml:"analysis"`
}

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect file",
		Short: "Show the pseudoloop analyzer arrays of a file",
		Long: `Show, per position, the partners, the cumulative bond count and the meet
degree computed by the pseudoloop analyzer, followed by the outer range, its
zero intervals and its meeting points.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeCLI, func(_ context.Context, sess *session) error {
				seq, err := arcseq.ReadFile(args[0], sess.sequenceOptions()...)
				if err != nil {
					return err
				}

				analysis, err := stree.Analyze(seq)
				if err != nil {
					return fmt.Errorf("analyze %s: %w", filepath.Base(args[0]), err)
				}

				view := inspectView{Name: filepath.Base(args[0]), Bonds: seq.NumBonds(), Analysis: analysis}

				return writeOutput(cmd.OutOrStdout(), "", sess.format(format), view, func(w io.Writer) error {
					return writeAnalysis(w, seq, view)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (text, json, yaml)")

	return cmd
}

func writeAnalysis(w io.Writer, seq *arcseq.Sequence, view inspectView) error {
	analysis := view.Analysis
	residues := seq.Residues()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Pos", "Residue", "Partners", "Count", "Meet"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for pos := 1; pos <= analysis.Length; pos++ {
		residue := ""
		if pos <= len(residues) {
			residue = residues[pos-1 : pos]
		}

		tw.AppendRow(table.Row{
			pos, residue, joinInts(seq.Partners(pos)), analysis.Count[pos], analysis.Meet[pos],
		})
	}

	intervals := make([]string, 0, len(analysis.Intervals))
	for _, iv := range analysis.Intervals {
		intervals = append(intervals, fmt.Sprintf("[%d,%d)", iv.Start, iv.Stop))
	}

	_, err := fmt.Fprintf(w, "%s\n%s: %s positions, %s bonds\nouter range: [%d,%d]\nzero intervals: %s\nmeets: %s\n",
		tw.Render(), view.Name,
		humanize.Comma(int64(analysis.Length)), humanize.Comma(int64(view.Bonds)),
		analysis.Left, analysis.Right,
		strings.Join(intervals, " "), joinInts(analysis.Meets))
	if err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	return nil
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}

	return strings.Join(parts, ",")
}
