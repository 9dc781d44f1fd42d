package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	setScoringDefaults(v)

	// Benchmark Configuration
	v.SetDefault("benchmark.enabled", true)
	v.SetDefault("benchmark.corpusPath", "")
	v.SetDefault("benchmark.sqlitePath", "")
	v.SetDefault("benchmark.watch", false)
	v.SetDefault("benchmark.debounceDelay", time.Second)
	v.SetDefault("benchmark.timeout", 2*time.Second)
	v.SetDefault("benchmark.topK", 3)
	v.SetDefault("benchmark.minConfidence", 0.2)
	setCircuitBreakerDefaults(v, "benchmark.circuitBreaker", 30*time.Second)

	// Embedding Configuration
	v.SetDefault("embedding.provider", "")
	v.SetDefault("embedding.model", "text-embedding-004")
	v.SetDefault("embedding.apiKey", "")
	v.SetDefault("embedding.timeout", 10*time.Second)
	v.SetDefault("embedding.maxRetries", 2)
	setCircuitBreakerDefaults(v, "embedding.circuitBreaker", 60*time.Second)
	v.SetDefault("embedding.cache.ttl", 24*time.Hour)
	v.SetDefault("embedding.cache.maxEntries", 5000)
	v.SetDefault("embedding.cache.redisURL", "")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.mount", "secret")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.embeddingKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "atscore")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.scoring.enabled", true)
	v.SetDefault("observability.customMetrics.scoring.trackDuration", true)
	v.SetDefault("observability.customMetrics.scoring.trackScores", true)
	v.SetDefault("observability.customMetrics.scoring.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.benchmark.enabled", true)
	v.SetDefault("observability.customMetrics.benchmark.trackFallbacks", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// setScoringDefaults mirrors DefaultScoringConfig so env vars and config files
// can override individual keys
func setScoringDefaults(v *viper.Viper) {
	d := DefaultScoringConfig()

	v.SetDefault("scoring.weights.skills", d.Weights.Skills)
	v.SetDefault("scoring.weights.experience", d.Weights.Experience)
	v.SetDefault("scoring.weights.education", d.Weights.Education)
	v.SetDefault("scoring.weights.format", d.Weights.Format)

	v.SetDefault("scoring.targets.skills", d.Targets.Skills)
	v.SetDefault("scoring.targets.experience", d.Targets.Experience)
	v.SetDefault("scoring.targets.education", d.Targets.Education)
	v.SetDefault("scoring.targets.format", d.Targets.Format)

	v.SetDefault("scoring.fuzzyThreshold", d.FuzzyThreshold)
	v.SetDefault("scoring.semanticThreshold", d.SemanticThreshold)
	v.SetDefault("scoring.preferredWeight", d.PreferredWeight)
	v.SetDefault("scoring.minRequirementCount", d.MinRequirementCount)
	v.SetDefault("scoring.neutralScore", d.NeutralScore)
	v.SetDefault("scoring.educationPenaltyPerLevel", d.EducationPenaltyPerLevel)
	v.SetDefault("scoring.fieldMismatchPenalty", d.FieldMismatchPenalty)
	v.SetDefault("scoring.minListedSkills", d.MinListedSkills)
	v.SetDefault("scoring.keywordReviewBelow", d.KeywordReviewBelow)

	v.SetDefault("scoring.interval.baseHalfWidth", d.Interval.BaseHalfWidth)
	v.SetDefault("scoring.interval.maxHalfWidth", d.Interval.MaxHalfWidth)
	v.SetDefault("scoring.interval.minConfidence", d.Interval.MinConfidence)

	v.SetDefault("scoring.format.sectionsWeight", d.Format.SectionsWeight)
	v.SetDefault("scoring.format.contactWeight", d.Format.ContactWeight)
	v.SetDefault("scoring.format.parseWeight", d.Format.ParseWeight)
	v.SetDefault("scoring.format.lengthWeight", d.Format.LengthWeight)
	v.SetDefault("scoring.format.minWords", d.Format.MinWords)
	v.SetDefault("scoring.format.maxWords", d.Format.MaxWords)
	v.SetDefault("scoring.format.maxPages", d.Format.MaxPages)
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string, timeout time.Duration) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".maxRequests", 3)
	v.SetDefault(prefix+".interval", 60*time.Second)
	v.SetDefault(prefix+".timeout", timeout)
	v.SetDefault(prefix+".minRequests", 3)
	v.SetDefault(prefix+".failureThreshold", 0.6)
}
