// Package telemetry wires OpenTelemetry tracing into the generator.
//
// Tracing is opt-in: unless OTEL_ENABLED=true, Init installs nothing and
// the global tracer stays a no-op, so a batch run pays no observability
// cost. When enabled, the generate command emits a root span per run and,
// for par-polypa, one span per engine progress report (at most one epoch
// every 200 ms, plus the final one), exported over OTLP.
//
// Configuration comes from the standard environment variables:
//
//	OTEL_ENABLED                 enable tracing (default: false)
//	OTEL_SERVICE_NAME            service name (default: nlpa-generator)
//	OTEL_SERVICE_VERSION         service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT  OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL  grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS   exporter headers, "k1=v1,k2=v2"
//	OTEL_EXPORTER_OTLP_INSECURE  plaintext connection (default: false)
//	OTEL_TRACES_SAMPLER          sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG      sampler argument (ratio)
//	OTEL_RESOURCE_ATTRIBUTES     extra resource attributes, "k1=v1,k2=v2"
package telemetry

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Config holds the tracing settings read from the environment.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Protocol       string
	Headers        map[string]string
	Insecure       bool
	Sampler        string
	SamplerArg     string
	ResourceAttrs  map[string]string
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and tears down the installed TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init reads the OTEL_* environment, and when tracing is enabled installs
// a global TracerProvider exporting over OTLP. It returns the provider's
// shutdown function (a no-op when tracing is off).
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
		trace.WithSampler(createSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Enabled reports whether tracing is switched on via the environment.
func Enabled() bool { return loadConfig().Enabled }

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}

// LoadFromEnv builds a Config from the OTEL_* environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        strings.EqualFold(os.Getenv("OTEL_ENABLED"), "true"),
		ServiceName:    envOr("OTEL_SERVICE_NAME", "nlpa-generator"),
		ServiceVersion: envOr("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parseKeyValuePairs(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       strings.EqualFold(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"), "true"),
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parseKeyValuePairs(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseKeyValuePairs parses "k1=v1,k2=v2"; values may contain '='.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(pair[:idx])
		if key != "" {
			result[key] = strings.TrimSpace(pair[idx+1:])
		}
	}
	return result
}

// createSampler maps OTEL_TRACES_SAMPLER to an SDK sampler, defaulting
// to full sampling — a generator run emits few spans (one per progress report), so
// sampling them down rarely makes sense.
func createSampler(cfg *Config) trace.Sampler {
	switch cfg.Sampler {
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(parseRatio(cfg.SamplerArg))
	case "parentbased_always_on":
		return trace.ParentBased(trace.AlwaysSample())
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(parseRatio(cfg.SamplerArg)))
	default:
		return trace.AlwaysSample()
	}
}

// parseRatio parses a sampling ratio, clamped to [0, 1]; unparsable
// input means full sampling.
func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1.0
	}
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}
