package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/models"
	"dnsproxy/internal/store"
)

// GetLogs godoc
// @Summary Query the resolver's recorded log entries
// @Tags logs
// @Produce json
// @Param domain query string false "filter by domain"
// @Param kind query string false "filter by entry kind"
// @Param limit query int false "max entries to return"
// @Success 200 {object} models.LogQueryResponse
// @Security ApiKeyAuth
// @Router /logs [get]
func (h *Handler) GetLogs(c *gin.Context) {
	log := h.eng.Drivers().Log
	if log == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "log store not configured"})
		return
	}

	filter := store.LogFilter{
		Domain:    c.Query("domain"),
		Kind:      c.Query("kind"),
		Level:     c.Query("level"),
		Provider:  c.Query("provider"),
		RequestID: c.Query("request_id"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if success, err := strconv.ParseBool(c.Query("success")); err == nil {
		filter.Success = &success
	}

	entries, err := log.Query(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := models.LogQueryResponse{Entries: make([]models.LogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.LogEntryResponse{
			ID:           e.ID,
			Timestamp:    e.Timestamp,
			Kind:         e.Kind,
			Level:        e.Level,
			ClientAddr:   e.ClientAddr,
			Transport:    e.Transport,
			Domain:       e.Domain,
			QType:        e.QType,
			Provider:     e.Provider,
			Cached:       e.Cached,
			Blocked:      e.Blocked,
			Whitelisted:  e.Whitelisted,
			Success:      e.Success,
			RCode:        e.RCode,
			Resolved:     e.Resolved,
			ResponseSize: e.ResponseSize,
			Attempt:      e.Attempt,
			LatencyMs:    e.LatencyMs,
			Message:      e.Message,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ClearLogs godoc
// @Summary Clear the query log
// @Tags logs
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /logs [delete]
func (h *Handler) ClearLogs(c *gin.Context) {
	log := h.eng.Drivers().Log
	if log == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "log store not configured"})
		return
	}
	if err := log.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "cleared"})
}

// LogStats godoc
// @Summary Query log occupancy summary
// @Tags logs
// @Produce json
// @Success 200 {object} models.LogStatsResponse
// @Security ApiKeyAuth
// @Router /logs/stats [get]
func (h *Handler) LogStats(c *gin.Context) {
	log := h.eng.Drivers().Log
	if log == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "log store not configured"})
		return
	}
	stats, err := log.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.LogStatsResponse{
		TotalEntries: stats.TotalEntries,
		OldestEntry:  stats.OldestEntry,
		NewestEntry:  stats.NewestEntry,
	})
}
