package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricBuildsTotal     = "stalign.builds.total"
	metricBuildDuration   = "stalign.build.duration.seconds"
	metricBuildBonds      = "stalign.build.bonds"
	metricComparesTotal   = "stalign.compares.total"
	metricCompareDuration = "stalign.compare.duration.seconds"
	metricErrorsTotal     = "stalign.errors.total"
	metricInflight        = "stalign.inflight"

	attrOp     = "op"
	attrStatus = "status"

	// OpBuild and OpCompare are the op attribute values.
	OpBuild   = "build"
	OpCompare = "compare"

	// Status values recorded with every build and comparison.
	StatusOK       = "ok"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// durationBucketBoundaries covers 10µs to 10 minutes. Builds finish in
// microseconds; alignments of large structures take minutes.
var durationBucketBoundaries = []float64{
	0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600,
}

var bondBucketBoundaries = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

// StructureMetrics holds the OTel instruments for builds and comparisons.
type StructureMetrics struct {
	builds          metric.Int64Counter
	buildDuration   metric.Float64Histogram
	buildBonds      metric.Int64Histogram
	compares        metric.Int64Counter
	compareDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
	inflight        metric.Int64UpDownCounter
}

// NewStructureMetrics creates the build and comparison instruments from mt.
// Every creation error is reported, joined.
func NewStructureMetrics(mt metric.Meter) (*StructureMetrics, error) {
	var (
		sm   StructureMetrics
		errs [7]error
	)

	sm.builds, errs[0] = mt.Int64Counter(metricBuildsTotal,
		metric.WithDescription("Structural trees built"), metric.WithUnit("{build}"))
	sm.buildDuration, errs[1] = mt.Float64Histogram(metricBuildDuration,
		metric.WithDescription("Structural tree build duration in seconds"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...))
	sm.buildBonds, errs[2] = mt.Int64Histogram(metricBuildBonds,
		metric.WithDescription("Bonds per built structure"), metric.WithUnit("{bond}"),
		metric.WithExplicitBucketBoundaries(bondBucketBoundaries...))
	sm.compares, errs[3] = mt.Int64Counter(metricComparesTotal,
		metric.WithDescription("Structure comparisons"), metric.WithUnit("{comparison}"))
	sm.compareDuration, errs[4] = mt.Float64Histogram(metricCompareDuration,
		metric.WithDescription("Comparison duration in seconds"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...))
	sm.errorsTotal, errs[5] = mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Failed builds and comparisons"), metric.WithUnit("{error}"))
	sm.inflight, errs[6] = mt.Int64UpDownCounter(metricInflight,
		metric.WithDescription("Builds and comparisons in progress"), metric.WithUnit("{operation}"))

	err := errors.Join(errs[:]...)
	if err != nil {
		return nil, fmt.Errorf("create structure metrics: %w", err)
	}

	return &sm, nil
}

// RecordBuild records one build of a structure with the given bond count.
func (sm *StructureMetrics) RecordBuild(ctx context.Context, bonds int, duration time.Duration, err error) {
	status := statusOf(err)
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))

	sm.builds.Add(ctx, 1, attrs)
	sm.buildDuration.Record(ctx, duration.Seconds(), attrs)

	if err == nil {
		sm.buildBonds.Record(ctx, int64(bonds))
	}

	sm.recordError(ctx, OpBuild, status)
}

// RecordCompare records one comparison done by engine.
func (sm *StructureMetrics) RecordCompare(ctx context.Context, engine string, duration time.Duration, err error) {
	status := statusOf(err)
	attrs := metric.WithAttributes(
		attribute.String(AttrEngine, engine),
		attribute.String(attrStatus, status),
	)

	sm.compares.Add(ctx, 1, attrs)
	sm.compareDuration.Record(ctx, duration.Seconds(), attrs)
	sm.recordError(ctx, OpCompare, status)
}

// TrackInflight increments the in-flight counter for op and returns a
// function that decrements it.
func (sm *StructureMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	sm.inflight.Add(ctx, 1, attrs)

	return func() {
		sm.inflight.Add(ctx, -1, attrs)
	}
}

func (sm *StructureMetrics) recordError(ctx context.Context, op, status string) {
	if status == StatusError {
		sm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}
