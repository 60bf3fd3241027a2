// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for the stalign CLI and workbench runs.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a single-shot command (build, align, distance, ...).
	ModeCLI AppMode = "cli"
	// ModeWorkbench is a batch comparison run over a directory.
	ModeWorkbench AppMode = "workbench"
)

// defaultServiceName is the OTel service name of every stalign run.
const defaultServiceName = "stalign"

// Config holds the observability settings of one stalign run, filled from
// the telemetry and log sections of the stalign config.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the stalign release, attached to logs and spans.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export; providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporter.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// DebugTrace samples every run, keeps the per-structure and per-pair
	// workbench spans and logs blocked span attributes. Set by --verbose.
	DebugTrace bool

	// SampleRatio is the share of runs traced when DebugTrace is false.
	// Zero traces every run.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogWriter receives log output. Nil means stderr.
	LogWriter io.Writer
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		Mode:        ModeCLI,
		LogLevel:    slog.LevelInfo,
	}
}
