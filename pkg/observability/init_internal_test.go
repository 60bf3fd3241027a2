package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSampler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "no ratio traces every run", cfg: Config{}, want: "AlwaysOnSampler"},
		{name: "ratio", cfg: Config{SampleRatio: 0.25}, want: "TraceIDRatioBased{0.25}"},
		{name: "debug overrides ratio", cfg: Config{SampleRatio: 0.25, DebugTrace: true}, want: "AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, sampler(tt.cfg).Description())
		})
	}
}

func TestResourceAttributes(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Mode = ModeWorkbench

	attrs := attribute.NewSet(resourceAttributes(cfg)...)

	mode, ok := attrs.Value(AttrMode)
	assert.True(t, ok)
	assert.Equal(t, "workbench", mode.AsString())

	service, ok := attrs.Value("service.name")
	assert.True(t, ok)
	assert.Equal(t, "stalign", service.AsString())

	_, ok = attrs.Value("service.version")
	assert.False(t, ok)

	cfg.ServiceVersion = "1.4.0"
	attrs = attribute.NewSet(resourceAttributes(cfg)...)

	version, ok := attrs.Value("service.version")
	assert.True(t, ok)
	assert.Equal(t, "1.4.0", version.AsString())
}
