package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/persist"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
	"github.com/Sumatoshi-tech/stalign/pkg/workbench"
)

// structure is a sequence file together with its structural tree.
type structure struct {
	name      string
	seq       *arcseq.Sequence
	tree      *stree.Node
	buildTime time.Duration
}

// buildView is the JSON and YAML form of the build command output.
type buildView struct {
	Name        string      `json:"name"          yaml:"name"`
	Length      int         `json:"length"        yaml:"length"`
	Bonds       int         `json:"bonds"         yaml:"bonds"`
	BuildTimeNS int64       `json:"build_time_ns" yaml:"build_time_ns"`
	Linear      string      `json:"linear"        yaml:"linear"`
	Simplified  string      `json:"simplified"    yaml:"simplified"`
	Tree        *stree.Node `json:"tree"          yaml:"tree"`
}

func newBuildCommand(opts *globalOptions) *cobra.Command {
	var format, output, saveDir, codecName string

	cmd := &cobra.Command{
		Use:   "build file",
		Short: "Build and print the structural tree of a file",
		Long: `Build the structural tree of an arc-annotated sequence.

Input files are bond lists "(i,j);(k,l)", dot-bracket (.db, .dbn) or JSON
documents (.json).

Examples:
  stalign build hairpins.txt              # Linear tree form
  stalign build -f yaml pk.db             # YAML tree
  stalign build --save trees pk.db        # Also store a snapshot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, observability.ModeCLI, func(ctx context.Context, sess *session) error {
				built, err := sess.build(ctx, args[0])
				if err != nil {
					return err
				}

				if saveDir != "" {
					saveErr := saveSnapshot(saveDir, sess.codecName(codecName), built)
					if saveErr != nil {
						return saveErr
					}

					sess.logger.InfoContext(ctx, "tree snapshot saved", "dir", saveDir, "name", built.name)
				}

				view := buildView{
					Name:        built.name,
					Length:      built.seq.Len(),
					Bonds:       built.seq.NumBonds(),
					BuildTimeNS: built.buildTime.Nanoseconds(),
					Linear:      built.tree.String(),
					Simplified:  built.tree.SimplifiedString(),
					Tree:        built.tree,
				}

				return writeOutput(cmd.OutOrStdout(), output, sess.format(format), view, func(w io.Writer) error {
					_, writeErr := fmt.Fprintln(w, view.Linear)

					return writeErr
				})
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (text, json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&saveDir, "save", "", "directory to store a tree snapshot in")
	cmd.Flags().StringVar(&codecName, "codec", "", "snapshot codec (json, yaml, gob, json+lz4, gob+lz4)")

	return cmd
}

// build reads path and builds its tree, recording a span and metrics.
func (s *session) build(ctx context.Context, path string) (*structure, error) {
	name := filepath.Base(path)

	ctx, span := s.tracer.Start(ctx, observability.SpanBuild,
		trace.WithAttributes(attribute.String(observability.AttrFile, name)))
	defer span.End()

	seq, err := arcseq.ReadFile(path, s.sequenceOptions()...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(
		attribute.Int(observability.AttrLength, seq.Len()),
		attribute.Int(observability.AttrBonds, seq.NumBonds()),
	)

	done := s.metrics.TrackInflight(ctx, observability.OpBuild)
	start := time.Now()
	tree, err := stree.NewBuilder(s.buildOptions()...).Build(ctx, seq)
	elapsed := time.Since(start)

	done()
	s.metrics.RecordBuild(ctx, seq.NumBonds(), elapsed, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("build %s: %w", name, err)
	}

	s.logger.DebugContext(ctx, "structural tree built",
		"name", name, "bonds", seq.NumBonds(), "nodes", tree.Size(), "elapsed", elapsed)

	return &structure{name: name, seq: seq, tree: tree, buildTime: elapsed}, nil
}

func (s *session) codecName(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return s.cfg.Workbench.Codec
}

func saveSnapshot(dir, codecName string, built *structure) error {
	codec, err := persist.CodecByName(codecName)
	if err != nil {
		return err
	}

	trees := persist.NewPersister[workbench.Snapshot](dir, codec)
	snapshot := workbench.Snapshot{
		Name:   built.name,
		Length: built.seq.Len(),
		Bonds:  built.seq.NumBonds(),
		Tree:   built.tree,
	}

	saveErr := trees.Save(strings.TrimSuffix(built.name, filepath.Ext(built.name)), &snapshot)
	if saveErr != nil {
		return fmt.Errorf("save snapshot: %w", saveErr)
	}

	return nil
}
