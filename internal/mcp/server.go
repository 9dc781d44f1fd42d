// Package mcp exposes the scoring engine as Model Context Protocol tools so
// assistants can score resumes and match skills directly.
package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"atscore/internal/app"
	"atscore/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrMissingEngine is returned when the server is built without an engine
var ErrMissingEngine = stderrors.New("mcp: scoring engine is required")

// Server is the MCP server for atscore
type Server struct {
	app      *app.App
	server   *mcp.Server
	validate *validator.Validate
	logger   *errors.Logger
}

// NewServer registers the scoring tools against a.
func NewServer(a *app.App, version string, logger *errors.Logger) (*Server, error) {
	if a == nil || a.Engine == nil {
		return nil, ErrMissingEngine
	}

	impl := &mcp.Implementation{
		Name:    "atscore",
		Version: version,
	}

	s := &Server{
		app:      a,
		server:   mcp.NewServer(impl, nil),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.LogError(err, "Failed to shut down MCP HTTP server")
		}
	}()

	s.logger.Info("MCP server listening", "address", addr)
	if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}
