package scoring

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for cost overrides, e.g.
// STALIGN_COSTS_INSERT_OPERATOR_COST.
const envPrefix = "STALIGN_COSTS"

// Cost file formats understood by viper.
const (
	typeDotenv = "dotenv"
	typeYAML   = "yaml"
)

// FileType returns the viper config type for a cost file: YAML for .yaml
// and .yml, KEY=VALUE lines otherwise.
func FileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return typeYAML
	default:
		return typeDotenv
	}
}

// Load reads the weights from path and the environment. It never fails:
// a missing or unreadable file, a missing key, or a value that is not a
// non-negative number keeps the default and is logged. An empty path reads
// the environment only.
func Load(path string, logger *slog.Logger) Costs {
	if logger == nil {
		logger = slog.Default()
	}

	viperCfg := viper.New()
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()

	if path != "" {
		viperCfg.SetConfigFile(path)
		viperCfg.SetConfigType(FileType(path))

		readErr := viperCfg.ReadInConfig()
		if readErr != nil {
			logger.Warn("cost file not readable, using default costs", "path", path, "error", readErr)
		}
	}

	costs := DefaultCosts()

	for _, field := range costs.fields() {
		if !viperCfg.IsSet(field.key) {
			logger.Info("cost not configured, using default", "key", field.key, "default", *field.value)

			continue
		}

		raw := strings.TrimSpace(viperCfg.GetString(field.key))

		value, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			logger.Warn("cost is not a number, using default",
				"key", field.key, "value", raw, "default", *field.value)

			continue
		}

		if !(value >= 0) {
			logger.Warn("cost is negative, using default",
				"key", field.key, "value", raw, "default", *field.value)

			continue
		}

		*field.value = value
	}

	return costs
}

// WriteDefaults writes the default weights to path in the format chosen by
// FileType.
func WriteDefaults(path string) error {
	return Write(path, DefaultCosts())
}

// Write writes costs to path in the format chosen by FileType.
func Write(path string, costs Costs) error {
	viperCfg := viper.New()
	viperCfg.SetConfigType(FileType(path))

	for _, entry := range costs.Entries() {
		viperCfg.Set(entry.Key, entry.Value)
	}

	file, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf("create cost file: %w", createErr)
	}

	writeErr := viperCfg.WriteConfigTo(file)
	closeErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("write cost file %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close cost file %s: %w", path, closeErr)
	}

	return nil
}
