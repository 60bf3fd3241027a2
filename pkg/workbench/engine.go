// Package workbench builds the structural trees of a directory of
// arc-annotated sequences and compares every pair of them.
package workbench

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEngine is returned by ParseEngine for an unsupported name.
var ErrUnknownEngine = errors.New("unknown comparison engine")

// Engine selects which distances a comparison computes.
type Engine string

const (
	// EngineAlign computes the alignment distance only.
	EngineAlign Engine = "align"
	// EngineTED computes the simplified-label edit distance only.
	EngineTED Engine = "ted"
	// EngineBoth computes both distances.
	EngineBoth Engine = "both"
)

// ParseEngine returns the engine named name.
func ParseEngine(name string) (Engine, error) {
	switch engine := Engine(strings.ToLower(strings.TrimSpace(name))); engine {
	case EngineAlign, EngineTED, EngineBoth:
		return engine, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

// Aligns reports whether the engine computes the alignment distance.
func (e Engine) Aligns() bool {
	return e == EngineAlign || e == EngineBoth
}

// Edits reports whether the engine computes the edit distance.
func (e Engine) Edits() bool {
	return e == EngineTED || e == EngineBoth
}
