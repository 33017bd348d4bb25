// Package api provides the management REST API for DNSProxy: lifecycle
// control, configuration, storage driver selection, domain filtering, the
// query log, and a Server-Sent Events stream, all layered over a Gin
// router in front of a running engine.Engine.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/handlers"
	"dnsproxy/internal/api/middleware"
	"dnsproxy/internal/config"
	"dnsproxy/internal/engine"
)

// Server is the management REST API server.
//
// Security note: do not expose the API to untrusted networks without an
// API key configured.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to eng, serving on cfg.API.Host:cfg.API.Port.
func New(eng *engine.Engine, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(eng, cfg, logger)
	RegisterRoutes(r, h, cfg)
	mountSPA(r, logger)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // the SSE endpoint holds the connection open
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: r, httpServer: httpServer}
}

// Handler returns the underlying HTTP handler, primarily for tests that
// want to drive requests without opening a real socket.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// ListenAndServe blocks serving the management API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
