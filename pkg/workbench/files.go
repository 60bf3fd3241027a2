package workbench

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// LoadDir lists the structure files of dir, sorted by name. Hidden files,
// subdirectories and files whose extension is not in extensions are
// skipped with a warning. An empty extensions list accepts every file.
func LoadDir(dir string, extensions []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read workbench dir: %w", err)
	}

	paths := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()

		switch {
		case entry.IsDir():
			logger.Warn("skipping subfolder", "name", name)
		case strings.HasPrefix(name, "."):
			logger.Warn("skipping hidden file", "name", name)
		case len(extensions) > 0 && !slices.Contains(extensions, strings.ToLower(filepath.Ext(name))):
			logger.Warn("skipping unrecognized file", "name", name)
		default:
			paths = append(paths, filepath.Join(dir, name))
		}
	}

	slices.Sort(paths)

	return paths, nil
}
