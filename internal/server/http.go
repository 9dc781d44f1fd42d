// Package server exposes the scoring engine over a JSON HTTP API.
package server

import (
	"encoding/json"
	"time"

	"atscore/internal/app"
	"atscore/internal/config"
	atscoreErrors "atscore/internal/errors"

	"github.com/go-playground/validator/v10"
)

// ScoreRequest is the body of POST /api/v1/score. Both documents are
// checked against their JSON Schema before decoding.
type ScoreRequest struct {
	Resume json.RawMessage `json:"resume" validate:"required"`
	Job    json.RawMessage `json:"jobDescription" validate:"required"`
}

// MatchRequest is the body of POST /api/v1/match
type MatchRequest struct {
	Required  []string `json:"required" validate:"required,min=1,max=200,dive,required,max=100"`
	Preferred []string `json:"preferred,omitempty" validate:"omitempty,max=200,dive,required,max=100"`
	Resume    []string `json:"resumeSkills" validate:"max=500,dive,max=100"`
}

// CanonicalizeRequest is the body of POST /api/v1/canonicalize
type CanonicalizeRequest struct {
	Terms []string `json:"terms" validate:"required,min=1,max=500,dive,required,max=100"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Scoring engine and its collaborators. Start builds it when nil.
	App       *app.App
	AppConfig *config.Config

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger   *atscoreErrors.Logger
	validate *validator.Validate
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *atscoreErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}
