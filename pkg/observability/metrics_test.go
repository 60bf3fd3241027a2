package observability_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.StructureMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sm, err := observability.NewStructureMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return sm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

// sumWhere adds the int64 sum points of name whose attributes contain kv.
func sumWhere(t *testing.T, rm metricdata.ResourceMetrics, name string, kv ...attribute.KeyValue) int64 {
	t.Helper()

	m := findMetric(rm, name)
	if m == nil {
		return 0
	}

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is %T", name, m.Data)

	var total int64

	for _, dp := range sum.DataPoints {
		matches := true

		for _, want := range kv {
			got, found := dp.Attributes.Value(want.Key)
			if !found || got != want.Value {
				matches = false
			}
		}

		if matches {
			total += dp.Value
		}
	}

	return total
}

func TestStructureMetrics_RecordBuild(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.RecordBuild(ctx, 12, 3*time.Millisecond, nil)
	sm.RecordBuild(ctx, 40, time.Millisecond, nil)
	sm.RecordBuild(ctx, 0, time.Microsecond, errors.New("unbalanced"))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumWhere(t, rm, "stalign.builds.total", attribute.String("status", "ok")))
	assert.Equal(t, int64(1), sumWhere(t, rm, "stalign.builds.total", attribute.String("status", "error")))
	assert.Equal(t, int64(1), sumWhere(t, rm, "stalign.errors.total", attribute.String("op", "build")))

	bonds := findMetric(rm, "stalign.build.bonds")
	require.NotNil(t, bonds)

	hist, ok := bonds.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(52), hist.DataPoints[0].Sum)

	require.NotNil(t, findMetric(rm, "stalign.build.duration.seconds"))
}

func TestStructureMetrics_RecordCompare(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.RecordCompare(ctx, "align", time.Second, nil)
	sm.RecordCompare(ctx, "ted", time.Millisecond, nil)
	sm.RecordCompare(ctx, "align", time.Millisecond, fmt.Errorf("align: %w", context.Canceled))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumWhere(t, rm, "stalign.compares.total", attribute.String("align.engine", "align")))
	assert.Equal(t, int64(1), sumWhere(t, rm, "stalign.compares.total",
		attribute.String("align.engine", "align"), attribute.String("status", "canceled")))
	assert.Zero(t, sumWhere(t, rm, "stalign.errors.total"))
	require.NotNil(t, findMetric(rm, "stalign.compare.duration.seconds"))
}

func TestStructureMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	doneBuild := sm.TrackInflight(ctx, observability.OpBuild)
	doneCompare := sm.TrackInflight(ctx, observability.OpCompare)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumWhere(t, rm, "stalign.inflight"))

	doneBuild()
	doneCompare()

	rm = collectMetrics(t, reader)
	assert.Zero(t, sumWhere(t, rm, "stalign.inflight"))
}
