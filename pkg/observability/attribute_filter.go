package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Span attribute keys set by stalign.
const (
	AttrFile    = "stalign.file"
	AttrFile2   = "stalign.file2"
	AttrLength  = "stalign.length"
	AttrBonds   = "stalign.bonds"
	AttrEngine  = "align.engine"
	AttrWorkers = "workbench.workers"
	AttrItems   = "workbench.items"
	AttrMode    = "stalign.mode"
)

// allowedPrefixes pass the filter. Anything else is dropped.
var allowedPrefixes = []string{
	"stalign.",
	"build.",
	"align.",
	"workbench.",
	"error.",
	"exception.",
}

// blockedKeys are always stripped. Residue strings can be large and are
// never wanted on a span.
var blockedKeys = map[string]bool{
	"stalign.sequence": true,
	"stalign.residues": true,
}

// attributeFilter is a SpanProcessor that strips attributes outside the
// allow-list before forwarding to a delegate processor.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter returns a SpanProcessor that filters span attributes.
// When logger is non-nil, dropped keys are logged as warnings.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd forwards a filtered view of the span.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	err := f.delegate.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	err := f.delegate.ForceFlush(ctx)
	if err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) isAllowed(key string) bool {
	if key == "error" {
		return true
	}

	if !blockedKeys[key] {
		for _, prefix := range allowedPrefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}

	if f.logger != nil {
		f.logger.Warn("attribute blocked by filter", "key", key)
	}

	return false
}

// filteredSpan wraps a ReadOnlySpan and returns only allowed attributes.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

// Attributes returns only the allowed attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	filtered := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.filter.isAllowed(string(kv.Key)) {
			filtered = append(filtered, kv)
		}
	}

	return filtered
}
