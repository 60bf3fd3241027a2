// Package config provides YAML-based configuration for the stalign CLI.
package config

// Log defaults.
const (
	DefaultLogLevel = LevelInfo
	DefaultLogJSON  = false
)

// Costs defaults. An empty file selects the built-in cost table.
const (
	DefaultCostsFile = ""
)

// Build defaults. Zero disables the corresponding limit.
const (
	DefaultBuildMaxDepth  = 1 << 20
	DefaultBuildMaxBonds  = 0
	DefaultBuildMaxLength = 1 << 22
)

// Align defaults.
const (
	DefaultAlignMaxCells = 1 << 26
	DefaultAlignEngine   = EngineAlign
)

// Workbench defaults. Zero workers means one per CPU.
const (
	DefaultWorkbenchWorkers  = 0
	DefaultWorkbenchTreesDir = ""
	DefaultWorkbenchCodec    = "json"
)

// DefaultWorkbenchExtensions lists the file extensions picked up from a
// workbench directory.
func DefaultWorkbenchExtensions() []string {
	return []string{".txt", ".aas", ".json", ".db", ".dbn"}
}

// Output defaults.
const (
	DefaultOutputFormat = FormatText
)

// Telemetry defaults. No endpoint disables export.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetryOTLPHeaders  = ""
	DefaultTelemetryMetricsFile  = ""
	DefaultTelemetrySampleRatio  = 0.0
)
