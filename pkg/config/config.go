package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/stalign/pkg/persist"
)

// Log levels accepted by log.level.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Comparison engines accepted by align.engine.
const (
	EngineAlign = "align"
	EngineTED   = "ted"
	EngineBoth  = "both"
)

// Output formats accepted by output.format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("workbench.workers must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be one of debug, info, warn, error")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of text, json, yaml")
	// ErrInvalidMaxDepth indicates a negative build depth limit.
	ErrInvalidMaxDepth = errors.New("build.max_depth must be non-negative")
	// ErrInvalidMaxBonds indicates a negative bond limit.
	ErrInvalidMaxBonds = errors.New("build.max_bonds must be non-negative")
	// ErrInvalidMaxLength indicates a negative sequence length limit.
	ErrInvalidMaxLength = errors.New("build.max_length must be non-negative")
	// ErrInvalidMaxCells indicates a negative alignment table limit.
	ErrInvalidMaxCells = errors.New("align.max_cells must be non-negative")
	// ErrInvalidEngine indicates an unknown comparison engine.
	ErrInvalidEngine = errors.New("align.engine must be one of align, ted, both")
	// ErrInvalidCodec indicates an unknown snapshot codec.
	ErrInvalidCodec = errors.New("workbench.codec is not a known codec")
	// ErrInvalidSampleRatio indicates a sample ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// Config is the full stalign configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Costs     CostsConfig     `mapstructure:"costs"`
	Build     BuildConfig     `mapstructure:"build"`
	Align     AlignConfig     `mapstructure:"align"`
	Workbench WorkbenchConfig `mapstructure:"workbench"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// CostsConfig points at the alignment cost file.
type CostsConfig struct {
	File string `mapstructure:"file"`
}

// BuildConfig bounds structural tree construction.
type BuildConfig struct {
	MaxDepth  int `mapstructure:"max_depth"`
	MaxBonds  int `mapstructure:"max_bonds"`
	MaxLength int `mapstructure:"max_length"`
}

// AlignConfig configures comparisons.
type AlignConfig struct {
	MaxCells int    `mapstructure:"max_cells"`
	Engine   string `mapstructure:"engine"`
}

// WorkbenchConfig configures batch runs over a directory.
type WorkbenchConfig struct {
	Workers    int      `mapstructure:"workers"`
	Extensions []string `mapstructure:"extensions"`
	TreesDir   string   `mapstructure:"trees_dir"`
	Codec      string   `mapstructure:"codec"`
}

// OutputConfig selects how trees and results are rendered.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// TelemetryConfig configures OTLP export and the metrics textfile.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	MetricsFile  string  `mapstructure:"metrics_file"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	if c.Build.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.Build.MaxDepth)
	}

	if c.Build.MaxBonds < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxBonds, c.Build.MaxBonds)
	}

	if c.Build.MaxLength < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLength, c.Build.MaxLength)
	}

	if c.Align.MaxCells < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxCells, c.Align.MaxCells)
	}

	if !slices.Contains([]string{EngineAlign, EngineTED, EngineBoth}, c.Align.Engine) {
		return fmt.Errorf("%w: %q", ErrInvalidEngine, c.Align.Engine)
	}

	return c.validateOutputs()
}

func (c *Config) validateOutputs() error {
	if c.Workbench.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workbench.Workers)
	}

	if _, err := persist.CodecByName(c.Workbench.Codec); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCodec, c.Workbench.Codec)
	}

	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML}, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// SlogLevel maps Log.Level to a slog level. Unknown levels map to info.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)

	return level
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case LevelDebug:
		return slog.LevelDebug, true
	case LevelInfo:
		return slog.LevelInfo, true
	case LevelWarn:
		return slog.LevelWarn, true
	case LevelError:
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NormalizedExtensions returns the workbench extensions lower-cased and
// prefixed with a dot.
func (c *Config) NormalizedExtensions() []string {
	out := make([]string, 0, len(c.Workbench.Extensions))

	for _, ext := range c.Workbench.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}

	return out
}
