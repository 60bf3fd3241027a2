package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/observability"
)

func TestMetricsFile_Write(t *testing.T) {
	t.Parallel()

	mf, err := observability.NewMetricsFile()
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, mf.Shutdown(context.Background())) })

	sm, err := observability.NewStructureMetrics(mf.Meter())
	require.NoError(t, err)

	sm.RecordBuild(context.Background(), 4, 2*time.Millisecond, nil)
	sm.RecordCompare(context.Background(), "align", 5*time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "stalign.prom")
	require.NoError(t, mf.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "target_info")
	assert.Contains(t, body, "builds")
	assert.Contains(t, body, "compares")
	assert.Contains(t, body, `status="ok"`)

	families, err := mf.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetricsFile_WriteBadPath(t *testing.T) {
	t.Parallel()

	mf, err := observability.NewMetricsFile()
	require.NoError(t, err)

	err = mf.Write(filepath.Join(t.TempDir(), "missing", "stalign.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics file")
}
