package server

// displayServerInfo logs the endpoint table and the protection settings
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	s.Logger.Info("Available endpoints",
		"health", "GET /health",
		"stats", "GET /stats",
		"score", "POST /api/v1/score",
		"match", "POST /api/v1/match",
		"canonicalize", "POST /api/v1/canonicalize",
		"benchmarks", "GET /api/v1/benchmarks?q=")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		s.Logger.Info("API authentication enabled", "keys", len(s.APIKeys))
		return
	}
	s.Logger.Warn("API authentication disabled, /api/v1 endpoints are publicly accessible")
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		s.Logger.Info("Request size limit", "bytes", s.MaxRequestSize)
		return
	}
	s.Logger.Warn("No request size limit configured")
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_api_key", s.RateLimit.ByAPIKey,
			"by_ip", s.RateLimit.ByIP)
		return
	}
	s.Logger.Warn("Rate limiting disabled")
}
