package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stalign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_FullFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log:
  level: debug
  json: true
costs:
  file: /etc/stalign/STAlign.config
build:
  max_depth: 64
  max_bonds: 500
  max_length: 2000
align:
  max_cells: 1000
  engine: both
workbench:
  workers: 8
  extensions: [".txt", "bp"]
  trees_dir: trees
  codec: gob+lz4
output:
  format: yaml
telemetry:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  otlp_headers: api-key=abc
  metrics_file: /var/lib/node_exporter/stalign.prom
  sample_ratio: 0.25
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "/etc/stalign/STAlign.config", cfg.Costs.File)
	assert.Equal(t, 64, cfg.Build.MaxDepth)
	assert.Equal(t, 500, cfg.Build.MaxBonds)
	assert.Equal(t, 2000, cfg.Build.MaxLength)
	assert.Equal(t, 1000, cfg.Align.MaxCells)
	assert.Equal(t, config.EngineBoth, cfg.Align.Engine)
	assert.Equal(t, 8, cfg.Workbench.Workers)
	assert.Equal(t, []string{".txt", ".bp"}, cfg.NormalizedExtensions())
	assert.Equal(t, "trees", cfg.Workbench.TreesDir)
	assert.Equal(t, "gob+lz4", cfg.Workbench.Codec)
	assert.Equal(t, config.FormatYAML, cfg.Output.Format)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, "api-key=abc", cfg.Telemetry.OTLPHeaders)
	assert.Equal(t, "/var/lib/node_exporter/stalign.prom", cfg.Telemetry.MetricsFile)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "log level", content: "log:\n  level: loud\n", want: config.ErrInvalidLogLevel},
		{name: "max depth", content: "build:\n  max_depth: -1\n", want: config.ErrInvalidMaxDepth},
		{name: "max bonds", content: "build:\n  max_bonds: -3\n", want: config.ErrInvalidMaxBonds},
		{name: "max length", content: "build:\n  max_length: -1\n", want: config.ErrInvalidMaxLength},
		{name: "max cells", content: "align:\n  max_cells: -1\n", want: config.ErrInvalidMaxCells},
		{name: "engine", content: "align:\n  engine: blast\n", want: config.ErrInvalidEngine},
		{name: "workers", content: "workbench:\n  workers: -2\n", want: config.ErrInvalidWorkers},
		{name: "codec", content: "workbench:\n  codec: xml\n", want: config.ErrInvalidCodec},
		{name: "format", content: "output:\n  format: html\n", want: config.ErrInvalidFormat},
		{name: "sample ratio", content: "telemetry:\n  sample_ratio: 2\n", want: config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))

			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "log: [unterminated\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("STALIGN_ALIGN_ENGINE", "ted")
	t.Setenv("STALIGN_WORKBENCH_WORKERS", "3")

	cfg, err := config.LoadConfig(writeConfig(t, "align:\n  engine: align\n"))
	require.NoError(t, err)

	assert.Equal(t, config.EngineTED, cfg.Align.Engine)
	assert.Equal(t, 3, cfg.Workbench.Workers)
}
