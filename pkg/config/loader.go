package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = "stalign"
	configType      = "yaml"
	envPrefix       = "STALIGN"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise stalign.yaml is searched in CWD and $HOME/.config/stalign.
// A missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	// The type is only forced for explicit paths: with a type set, viper
	// also accepts an extensionless "stalign" file, which is the binary.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
		viperCfg.SetConfigType(configType)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: DefaultLogLevel, JSON: DefaultLogJSON},
		Costs: CostsConfig{File: DefaultCostsFile},
		Build: BuildConfig{
			MaxDepth:  DefaultBuildMaxDepth,
			MaxBonds:  DefaultBuildMaxBonds,
			MaxLength: DefaultBuildMaxLength,
		},
		Align: AlignConfig{MaxCells: DefaultAlignMaxCells, Engine: DefaultAlignEngine},
		Workbench: WorkbenchConfig{
			Workers:    DefaultWorkbenchWorkers,
			Extensions: DefaultWorkbenchExtensions(),
			TreesDir:   DefaultWorkbenchTreesDir,
			Codec:      DefaultWorkbenchCodec,
		},
		Output: OutputConfig{Format: DefaultOutputFormat},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: DefaultTelemetryOTLPEndpoint,
			OTLPInsecure: DefaultTelemetryOTLPInsecure,
			OTLPHeaders:  DefaultTelemetryOTLPHeaders,
			MetricsFile:  DefaultTelemetryMetricsFile,
			SampleRatio:  DefaultTelemetrySampleRatio,
		},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", DefaultLogJSON)

	viperCfg.SetDefault("costs.file", DefaultCostsFile)

	viperCfg.SetDefault("build.max_depth", DefaultBuildMaxDepth)
	viperCfg.SetDefault("build.max_bonds", DefaultBuildMaxBonds)
	viperCfg.SetDefault("build.max_length", DefaultBuildMaxLength)

	viperCfg.SetDefault("align.max_cells", DefaultAlignMaxCells)
	viperCfg.SetDefault("align.engine", DefaultAlignEngine)

	viperCfg.SetDefault("workbench.workers", DefaultWorkbenchWorkers)
	viperCfg.SetDefault("workbench.extensions", DefaultWorkbenchExtensions())
	viperCfg.SetDefault("workbench.trees_dir", DefaultWorkbenchTreesDir)
	viperCfg.SetDefault("workbench.codec", DefaultWorkbenchCodec)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.metrics_file", DefaultTelemetryMetricsFile)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
}
