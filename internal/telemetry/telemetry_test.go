package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// resetGlobalConfig clears the cached env config between tests.
func resetGlobalConfig() {
	globalConfig = nil
	configOnce = sync.Once{}
}

func TestInitDisabledIsNoop(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("OTEL_ENABLED", "")

	ctx := context.Background()
	shutdown, err := Init(ctx)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc=def, X-Team = graphs")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")

	cfg := LoadFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, "Bearer abc=def", cfg.Headers["Authorization"])
	assert.Equal(t, "graphs", cfg.Headers["X-Team"])
}

func TestParseKeyValuePairs(t *testing.T) {
	assert.Empty(t, parseKeyValuePairs(""))
	assert.Empty(t, parseKeyValuePairs("=nokey,also-not-a-pair"))
	assert.Equal(t,
		map[string]string{"a": "1", "b": "2"},
		parseKeyValuePairs("a=1, b=2"))
}

func TestCreateSampler(t *testing.T) {
	cases := []struct {
		sampler string
		arg     string
		want    sdktrace.Sampler
	}{
		{"", "", sdktrace.AlwaysSample()},
		{"always_on", "", sdktrace.AlwaysSample()},
		{"always_off", "", sdktrace.NeverSample()},
		{"traceidratio", "0.25", sdktrace.TraceIDRatioBased(0.25)},
		{"traceidratio", "junk", sdktrace.TraceIDRatioBased(1.0)},
		{"parentbased_always_on", "", sdktrace.ParentBased(sdktrace.AlwaysSample())},
	}
	for _, tc := range cases {
		got := createSampler(&Config{Sampler: tc.sampler, SamplerArg: tc.arg})
		assert.Equal(t, tc.want.Description(), got.Description(), "sampler %q", tc.sampler)
	}
}

func TestParseRatioClamps(t *testing.T) {
	assert.Equal(t, 1.0, parseRatio(""))
	assert.Equal(t, 1.0, parseRatio("2.5"))
	assert.Equal(t, 0.0, parseRatio("-1"))
	assert.Equal(t, 0.5, parseRatio("0.5"))
}
