package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
	"github.com/Sumatoshi-tech/stalign/pkg/ted"
	"github.com/Sumatoshi-tech/stalign/pkg/treealign"
	"github.com/Sumatoshi-tech/stalign/pkg/workbench"
)

// alignView is the JSON and YAML form of the align command output.
type alignView struct {
	Left        string  `json:"left"          yaml:"left"`
	Right       string  `json:"right"         yaml:"right"`
	Distance    float64 `json:"distance"      yaml:"distance"`
	AlignTimeNS int64   `json:"align_time_ns"       yaml:"align_time_ns"`
	Alignment   string  `json:"alignment,omitempty" yaml:"alignment,omitempty"`
}

// editView is the JSON and YAML form of the distance command output.
type editView struct {
	Left       string     `json:"left"         yaml:"left"`
	Right      string     `json:"right"        yaml:"right"`
	Distance   float64    `json:"distance"     yaml:"distance"`
	EditTimeNS int64      `json:"edit_time_ns"      yaml:"edit_time_ns"`
	Mapping    []editStep `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// editStep is one entry of an edit mapping.
type editStep struct {
	Op    string `json:"op"              yaml:"op"`
	Left  string `json:"left,omitempty"  yaml:"left,omitempty"`
	Right string `json:"right,omitempty" yaml:"right,omitempty"`
}

// Edit mapping operations.
const (
	opKeep   = "keep"
	opRename = "rename"
	opInsert = "insert"
	opDelete = "delete"
)

func newAlignCommand(opts *globalOptions) *cobra.Command {
	var (
		format, output string
		distanceOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "align file1 file2",
		Short: "Alignment distance between two structures",
		Long: `Align the structural trees of two files and print the distance and the
alignment tree. Costs come from --costs, costs.file in the config, or the
STALIGN_COSTS_* environment variables.

Examples:
  stalign align a.db b.db
  stalign align -c costs.env -f json a.db b.db
  stalign align -d a.db b.db`,
		Args: cobra.ExactArgs(pairArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeCLI, func(ctx context.Context, sess *session) error {
				left, right, err := sess.buildPair(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				view, err := sess.align(ctx, left, right)
				if err != nil {
					return err
				}

				if distanceOnly {
					view.Alignment = ""
				}

				return writeOutput(cmd.OutOrStdout(), output, sess.format(format), view, func(w io.Writer) error {
					if distanceOnly {
						return writeDistance(w, view.Distance)
					}

					_, writeErr := fmt.Fprintf(w, "distance: %s\n%s\n", formatFloat(view.Distance), view.Alignment)

					return writeErr
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (text, json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&distanceOnly, "distance-only", "d", false, "print only the distance, no alignment tree")

	return cmd
}

func newDistanceCommand(opts *globalOptions) *cobra.Command {
	var (
		format, output string
		distanceOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "distance file1 file2",
		Short: "Edit distance between two structures",
		Long: `Compute the tree edit distance between the structural trees of two files.
Nodes are compared by their grammar symbol only, so hairpins at different
positions match. The edit mapping is printed after the distance.`,
		Args: cobra.ExactArgs(pairArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeCLI, func(ctx context.Context, sess *session) error {
				left, right, err := sess.buildPair(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				view, err := sess.editDistance(ctx, left, right)
				if err != nil {
					return err
				}

				if distanceOnly {
					view.Mapping = nil
				}

				return writeOutput(cmd.OutOrStdout(), output, sess.format(format), view, func(w io.Writer) error {
					return writeMapping(w, view)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (text, json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&distanceOnly, "distance-only", "d", false, "print only the distance, no edit mapping")

	return cmd
}

func (s *session) buildPair(ctx context.Context, leftPath, rightPath string) (*structure, *structure, error) {
	left, err := s.build(ctx, leftPath)
	if err != nil {
		return nil, nil, err
	}

	right, err := s.build(ctx, rightPath)
	if err != nil {
		return nil, nil, err
	}

	return left, right, nil
}

func (s *session) align(ctx context.Context, left, right *structure) (*alignView, error) {
	ctx, span := s.tracer.Start(ctx, observability.SpanAlign, trace.WithAttributes(
		attribute.String(observability.AttrFile, left.name),
		attribute.String(observability.AttrFile2, right.name),
		attribute.String(observability.AttrEngine, string(workbench.EngineAlign)),
	))
	defer span.End()

	defer s.metrics.TrackInflight(ctx, observability.OpCompare)()

	start := time.Now()
	result, err := treealign.Align(left.tree, right.tree, s.model.NodeCost, s.alignOptions()...)
	elapsed := time.Since(start)

	s.metrics.RecordCompare(ctx, string(workbench.EngineAlign), elapsed, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("align %s and %s: %w", left.name, right.name, err)
	}

	return &alignView{
		Left:        left.name,
		Right:       right.name,
		Distance:    result.Distance,
		AlignTimeNS: elapsed.Nanoseconds(),
		Alignment:   treealign.Format(result.Alignment, nodeLabel),
	}, nil
}

func (s *session) editDistance(ctx context.Context, left, right *structure) (*editView, error) {
	ctx, span := s.tracer.Start(ctx, observability.SpanDistance, trace.WithAttributes(
		attribute.String(observability.AttrFile, left.name),
		attribute.String(observability.AttrFile2, right.name),
		attribute.String(observability.AttrEngine, string(workbench.EngineTED)),
	))
	defer span.End()

	defer s.metrics.TrackInflight(ctx, observability.OpCompare)()

	start := time.Now()
	result, err := ted.Distance(left.tree, right.tree, workbench.SimplifiedLabel, s.model.EditCosts(), s.editOptions()...)
	elapsed := time.Since(start)

	s.metrics.RecordCompare(ctx, string(workbench.EngineTED), elapsed, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("edit distance %s and %s: %w", left.name, right.name, err)
	}

	view := &editView{
		Left:       left.name,
		Right:      right.name,
		Distance:   result.Distance,
		EditTimeNS: elapsed.Nanoseconds(),
		Mapping:    make([]editStep, 0, len(result.Mapping)),
	}

	for _, pair := range result.Mapping {
		view.Mapping = append(view.Mapping, newEditStep(pair))
	}

	return view, nil
}

func newEditStep(pair ted.Pair[*stree.Node]) editStep {
	switch {
	case pair.Left == nil:
		return editStep{Op: opInsert, Right: nodeLabel(pair.Right)}
	case pair.Right == nil:
		return editStep{Op: opDelete, Left: nodeLabel(pair.Left)}
	case pair.Left.Label.Simplified() == pair.Right.Label.Simplified():
		return editStep{Op: opKeep, Left: nodeLabel(pair.Left), Right: nodeLabel(pair.Right)}
	default:
		return editStep{Op: opRename, Left: nodeLabel(pair.Left), Right: nodeLabel(pair.Right)}
	}
}

func writeDistance(w io.Writer, distance float64) error {
	_, err := fmt.Fprintf(w, "distance: %s\n", formatFloat(distance))
	if err != nil {
		return fmt.Errorf("write distance: %w", err)
	}

	return nil
}

func writeMapping(w io.Writer, view *editView) error {
	err := writeDistance(w, view.Distance)
	if err != nil {
		return err
	}

	for _, step := range view.Mapping {
		var line string

		switch step.Op {
		case opInsert:
			line = fmt.Sprintf("%-6s %s", step.Op, step.Right)
		case opDelete:
			line = fmt.Sprintf("%-6s %s", step.Op, step.Left)
		default:
			line = fmt.Sprintf("%-6s %s -> %s", step.Op, step.Left, step.Right)
		}

		_, err = fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("write mapping: %w", err)
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
