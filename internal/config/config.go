package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (ATSCORE_EMBEDDING_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Benchmark     BenchmarkConfig     `mapstructure:"benchmark"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BenchmarkConfig holds benchmark retrieval configuration
type BenchmarkConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	CorpusPath     string               `mapstructure:"corpusPath"` // JSON corpus file; empty uses the embedded corpus
	SQLitePath     string               `mapstructure:"sqlitePath"` // read-only profile store, takes precedence over corpusPath
	Watch          bool                 `mapstructure:"watch"`      // reload corpusPath on change
	DebounceDelay  time.Duration        `mapstructure:"debounceDelay"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	TopK           int                  `mapstructure:"topK"`
	MinConfidence  float64              `mapstructure:"minConfidence"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// EmbeddingConfig holds configuration for the semantic similarity provider
type EmbeddingConfig struct {
	Provider       string               `mapstructure:"provider"` // "" disables the semantic tier
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	Cache          EmbeddingCacheConfig `mapstructure:"cache"`
}

// EmbeddingCacheConfig holds the embedding vector cache configuration
type EmbeddingCacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"maxEntries"`
	RedisURL   string        `mapstructure:"redisURL"` // optional L2 cache
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	Scoring        ScoringMetricsConfig        `mapstructure:"scoring"`
	Benchmark      BenchmarkMetricsConfig      `mapstructure:"benchmark"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// ScoringMetricsConfig holds scoring operation metrics configuration
type ScoringMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackDuration     bool `mapstructure:"trackDuration"`
	TrackScores       bool `mapstructure:"trackScores"`
	TrackSuccessRates bool `mapstructure:"trackSuccessRates"`
}

// BenchmarkMetricsConfig holds benchmark retrieval metrics configuration
type BenchmarkMetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TrackFallbacks bool `mapstructure:"trackFallbacks"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file.
// An empty configFile searches the default locations.
func LoadConfig(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	// Set default values
	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	// Set up environment variable handling
	v.SetEnvPrefix("ATSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'ATSCORE'")

	// Set up config file handling
	if configFile != "" {
		v.SetConfigFile(configFile)
		log.Printf("[CONFIG] Using config file from flag: %s", configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/atscore/")
		v.AddConfigPath("$HOME/.atscore")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/atscore/, $HOME/.atscore, .")
	}

	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	// Unmarshal the configuration into the Config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	// Log configuration sources summary
	config.logConfigurationSources(configFileUsed)

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	if c.Benchmark.Enabled {
		if c.Benchmark.Timeout <= 0 {
			return fmt.Errorf("benchmark timeout must be positive")
		}
		if c.Benchmark.TopK <= 0 {
			return fmt.Errorf("benchmark topK must be positive")
		}
		if c.Benchmark.MinConfidence < 0 || c.Benchmark.MinConfidence > 1 {
			return fmt.Errorf("benchmark minConfidence must be within [0,1], got %v", c.Benchmark.MinConfidence)
		}
	}

	switch c.Embedding.Provider {
	case "":
	case "gemini":
		if c.Embedding.Timeout <= 0 {
			return fmt.Errorf("embedding timeout must be positive")
		}
		if c.Embedding.MaxRetries < 0 {
			return fmt.Errorf("embedding maxRetries must not be negative")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// SemanticEnabled reports whether an embedding provider is configured with a key.
func (c *Config) SemanticEnabled() bool {
	return c.Embedding.Provider != "" && c.Embedding.APIKey != ""
}
