package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
	"github.com/Sumatoshi-tech/stalign/pkg/observability"
	"github.com/Sumatoshi-tech/stalign/pkg/persist"
	"github.com/Sumatoshi-tech/stalign/pkg/scoring"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
	"github.com/Sumatoshi-tech/stalign/pkg/ted"
	"github.com/Sumatoshi-tech/stalign/pkg/treealign"
)

// Structure is one input file and the outcome of building its tree.
type Structure struct {
	Path      string
	Name      string
	Length    int
	Bonds     int
	Tree      *stree.Node
	BuildTime time.Duration
	Err       error
}

// OK reports whether the tree was built.
func (s *Structure) OK() bool {
	return s.Err == nil && s.Tree != nil
}

// Comparison is the outcome of comparing two built structures.
type Comparison struct {
	Left, Right *Structure

	Distance  float64
	AlignTime time.Duration
	AlignErr  error

	EditDistance float64
	EditTime     time.Duration
	EditErr      error
}

// Err joins the alignment and edit distance errors.
func (c *Comparison) Err() error {
	return errors.Join(c.AlignErr, c.EditErr)
}

// Report collects a workbench run. Structures keep the input order;
// Comparisons list the pairs (i, j), i < j, of built structures in order.
type Report struct {
	Engine      Engine
	Structures  []*Structure
	Comparisons []*Comparison
	Elapsed     time.Duration
}

// Built returns the structures whose tree was built.
func (r *Report) Built() []*Structure {
	built := make([]*Structure, 0, len(r.Structures))

	for _, s := range r.Structures {
		if s.OK() {
			built = append(built, s)
		}
	}

	return built
}

// Snapshot is the persisted form of a built structure.
type Snapshot struct {
	Name   string      `json:"name"   yaml:"name"`
	Length int         `json:"length" yaml:"length"`
	Bonds  int         `json:"bonds"  yaml:"bonds"`
	Tree   *stree.Node `json:"tree"   yaml:"tree"`
}

// Options configures a Runner.
type Options struct {
	// Workers bounds concurrent builds and comparisons. Zero or less uses GOMAXPROCS.
	Workers int
	// Engine selects the distances to compute. Empty means EngineAlign.
	Engine Engine
	// Model scores alignments and edits. Nil uses the default costs.
	Model *scoring.Model
	// BuildOptions are passed to the structural tree builder.
	BuildOptions []stree.Option
	// SequenceOptions are passed to the sequence readers.
	SequenceOptions []arcseq.Option
	// AlignOptions are passed to every alignment.
	AlignOptions []treealign.Option
	// EditOptions are passed to every edit distance.
	EditOptions []ted.Option
	// Trees, when set, receives a snapshot of every built tree.
	Trees *persist.Persister[Snapshot]
	// Logger receives per-item warnings. Nil uses slog.Default().
	Logger *slog.Logger
	// Tracer records run and per-item spans. Nil disables tracing.
	Tracer trace.Tracer
	// Metrics records builds and comparisons. Nil disables metrics.
	Metrics *observability.StructureMetrics
}

// Runner builds and compares structures in parallel.
type Runner struct {
	opts    Options
	builder *stree.Builder
}

// NewRunner returns a Runner for opts.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	if opts.Engine == "" {
		opts.Engine = EngineAlign
	}

	if opts.Model == nil {
		opts.Model = scoring.NewModel(scoring.DefaultCosts())
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer(observability.TracerName)
	}

	if opts.Metrics == nil {
		metrics, err := observability.NewStructureMetrics(noopmetric.NewMeterProvider().Meter(observability.MeterName))
		if err != nil {
			return nil, fmt.Errorf("workbench metrics: %w", err)
		}

		opts.Metrics = metrics
	}

	buildOpts := append([]stree.Option{stree.WithLogger(opts.Logger)}, opts.BuildOptions...)

	return &Runner{
		opts:    opts,
		builder: stree.NewBuilder(buildOpts...),
	}, nil
}

// Run builds every file in paths and compares every pair of built trees.
// Files that cannot be read or built are reported with Err set and left out
// of the comparisons. Only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()

	ctx, span := r.opts.Tracer.Start(ctx, observability.SpanWorkbench, trace.WithAttributes(
		attribute.Int(observability.AttrItems, len(paths)),
		attribute.Int(observability.AttrWorkers, r.opts.Workers),
		attribute.String(observability.AttrEngine, string(r.opts.Engine)),
	))
	defer span.End()

	report := &Report{Engine: r.opts.Engine}

	structures, err := r.buildAll(ctx, paths)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	report.Structures = structures

	comparisons, err := r.compareAll(ctx, report.Built())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	report.Comparisons = comparisons
	report.Elapsed = time.Since(start)

	r.opts.Logger.InfoContext(ctx, "workbench run finished",
		"structures", len(structures),
		"built", len(report.Built()),
		"comparisons", len(comparisons),
		"elapsed", report.Elapsed)

	return report, nil
}

func (r *Runner) buildAll(ctx context.Context, paths []string) ([]*Structure, error) {
	structures := make([]*Structure, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			structures[i] = r.buildOne(gctx, path)

			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	if waitErr != nil {
		return nil, fmt.Errorf("build structures: %w", waitErr)
	}

	return structures, nil
}

func (r *Runner) buildOne(ctx context.Context, path string) *Structure {
	s := &Structure{Path: path, Name: filepath.Base(path)}

	ctx, span := r.opts.Tracer.Start(ctx, observability.SpanWorkbenchBuild,
		trace.WithAttributes(attribute.String(observability.AttrFile, s.Name)))
	defer span.End()

	seq, err := arcseq.ReadFile(path, r.opts.SequenceOptions...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.skip(ctx, s, err)

		return s
	}

	s.Length, s.Bonds = seq.Len(), seq.NumBonds()
	span.SetAttributes(attribute.Int(observability.AttrLength, s.Length), attribute.Int(observability.AttrBonds, s.Bonds))

	done := r.opts.Metrics.TrackInflight(ctx, observability.OpBuild)
	start := time.Now()
	tree, err := r.builder.Build(ctx, seq)
	s.BuildTime = time.Since(start)

	done()
	r.opts.Metrics.RecordBuild(ctx, s.Bonds, s.BuildTime, err)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.skip(ctx, s, err)

		return s
	}

	s.Tree = tree
	r.save(ctx, s)

	return s
}

// skip records why s was not built.
func (r *Runner) skip(ctx context.Context, s *Structure, err error) {
	s.Err = err

	if errors.Is(err, stree.ErrStructureTooLarge) {
		r.opts.Logger.WarnContext(ctx, "structure too big, skipping", "name", s.Name, "error", err)

		return
	}

	r.opts.Logger.WarnContext(ctx, "skipping file", "name", s.Name, "error", err)
}

func (r *Runner) save(ctx context.Context, s *Structure) {
	if r.opts.Trees == nil {
		return
	}

	snapshot := Snapshot{Name: s.Name, Length: s.Length, Bonds: s.Bonds, Tree: s.Tree}

	err := r.opts.Trees.Save(strings.TrimSuffix(s.Name, filepath.Ext(s.Name)), &snapshot)
	if err != nil {
		r.opts.Logger.WarnContext(ctx, "tree snapshot not saved", "name", s.Name, "error", err)
	}
}

func (r *Runner) compareAll(ctx context.Context, built []*Structure) ([]*Comparison, error) {
	comparisons := make([]*Comparison, 0, len(built)*(len(built)-1)/2)

	for i := range built {
		for j := i + 1; j < len(built); j++ {
			comparisons = append(comparisons, &Comparison{Left: built[i], Right: built[j]})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, c := range comparisons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			r.compare(gctx, c)

			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	if waitErr != nil {
		return nil, fmt.Errorf("compare structures: %w", waitErr)
	}

	return comparisons, nil
}

func (r *Runner) compare(ctx context.Context, c *Comparison) {
	ctx, span := r.opts.Tracer.Start(ctx, observability.SpanWorkbenchCompare, trace.WithAttributes(
		attribute.String(observability.AttrFile, c.Left.Name),
		attribute.String(observability.AttrFile2, c.Right.Name),
	))
	defer span.End()

	defer r.opts.Metrics.TrackInflight(ctx, observability.OpCompare)()

	if r.opts.Engine.Aligns() {
		start := time.Now()
		result, err := treealign.Align(c.Left.Tree, c.Right.Tree, r.opts.Model.NodeCost, r.opts.AlignOptions...)
		c.AlignTime = time.Since(start)

		r.opts.Metrics.RecordCompare(ctx, string(EngineAlign), c.AlignTime, err)

		if err != nil {
			c.AlignErr = err
			span.SetStatus(codes.Error, err.Error())
			r.opts.Logger.WarnContext(ctx, "alignment skipped",
				"left", c.Left.Name, "right", c.Right.Name, "error", err)
		} else {
			c.Distance = result.Distance
		}
	}

	if r.opts.Engine.Edits() {
		start := time.Now()
		result, err := ted.Distance(c.Left.Tree, c.Right.Tree, SimplifiedLabel, r.opts.Model.EditCosts(), r.opts.EditOptions...)
		c.EditTime = time.Since(start)

		r.opts.Metrics.RecordCompare(ctx, string(EngineTED), c.EditTime, err)

		if err != nil {
			c.EditErr = err
			span.SetStatus(codes.Error, err.Error())
			r.opts.Logger.WarnContext(ctx, "edit distance skipped",
				"left", c.Left.Name, "right", c.Right.Name, "error", err)
		} else {
			c.EditDistance = result.Distance
		}
	}
}

// SimplifiedLabel is the node label used by the edit distance.
func SimplifiedLabel(n *stree.Node) string {
	return n.Label.Simplified()
}
