package observability

import (
	"time"

	"atscore/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		// Fallback to defaults if config not available
		return ObservabilityConfig{
			ServiceName:        "atscore",
			ServiceVersion:     version,
			ServiceInstance:    "atscore-1",
			Enabled:            true,
			SampleRate:         1.0,
			CollectionInterval: 15 * time.Second,
			Prometheus:         GetPrometheusConfig(cfg),
			CustomMetrics:      allCustomMetrics(),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:        obsConfig.ServiceName,
		ServiceVersion:     serviceVersion,
		ServiceInstance:    obsConfig.ServiceInstance,
		Enabled:            obsConfig.Enabled,
		ConsoleOutput:      obsConfig.ConsoleOutput,
		SampleRate:         obsConfig.SampleRate,
		CollectionInterval: obsConfig.Metrics.CollectionInterval,
		Prometheus:         GetPrometheusConfig(cfg),
		OTLP:               obsConfig.OTLP,
		CustomMetrics:      obsConfig.CustomMetrics,
	}
}

func allCustomMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		Scoring: config.ScoringMetricsConfig{
			Enabled:           true,
			TrackDuration:     true,
			TrackScores:       true,
			TrackSuccessRates: true,
		},
		Benchmark: config.BenchmarkMetricsConfig{
			Enabled:        true,
			TrackFallbacks: true,
		},
		Infrastructure: config.InfrastructureMetricsConfig{
			Enabled:         true,
			TrackRateLimits: true,
		},
	}
}
