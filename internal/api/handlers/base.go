// Package handlers implements the REST API endpoint handlers for the
// DNSProxy management API.
//
// @title DNSProxy Management API
// @version 1.0
// @description REST API for controlling the DNSProxy resolver: lifecycle,
// configuration, storage drivers, domain filtering, and the query log.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"sync"
	"time"

	"dnsproxy/internal/config"
	"dnsproxy/internal/engine"
)

// Handler contains the dependencies shared by every API endpoint.
type Handler struct {
	eng       *engine.Engine
	logger    *slog.Logger
	startTime time.Time

	mu  sync.RWMutex
	cfg config.Config
}

// New creates a Handler bound to a running Engine.
func New(eng *engine.Engine, cfg config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		eng:       eng,
		logger:    logger,
		startTime: time.Now(),
		cfg:       cfg,
	}
}

func (h *Handler) config() config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *Handler) setConfig(cfg config.Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}
