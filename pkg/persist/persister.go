package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// dirPerm is the permission used when creating a persister directory.
const dirPerm = 0o750

// Persister stores values of one type under named files in a directory.
type Persister[T any] struct {
	dir   string
	codec Codec
}

// NewPersister creates a persister rooted at dir. The directory is created
// on first save.
func NewPersister[T any](dir string, codec Codec) *Persister[T] {
	return &Persister[T]{
		dir:   dir,
		codec: codec,
	}
}

// Dir returns the directory of the persister.
func (p *Persister[T]) Dir() string {
	return p.dir
}

// Path returns the file that holds name.
func (p *Persister[T]) Path(name string) string {
	return filepath.Join(p.dir, name+p.codec.Extension())
}

// Save writes state under name.
func (p *Persister[T]) Save(name string, state *T) error {
	mkErr := os.MkdirAll(p.dir, dirPerm)
	if mkErr != nil {
		return fmt.Errorf("create state dir: %w", mkErr)
	}

	return SaveState(p.dir, name, p.codec, state)
}

// Load reads the value stored under name.
func (p *Persister[T]) Load(name string) (*T, error) {
	var state T

	err := LoadState(p.dir, name, p.codec, &state)
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// Names lists, sorted, the names stored with this persister's codec.
func (p *Persister[T]) Names() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("list state dir: %w", err)
	}

	ext := p.codec.Extension()
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if name, ok := strings.CutSuffix(entry.Name(), ext); ok && name != "" {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names, nil
}
