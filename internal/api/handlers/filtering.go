package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/models"
	"dnsproxy/internal/filtering"
)

// GetWhitelist godoc
// @Summary List whitelisted domains
// @Tags filtering
// @Produce json
// @Success 200 {object} models.DomainListResponse
// @Security ApiKeyAuth
// @Router /filtering/whitelist [get]
func (h *Handler) GetWhitelist(c *gin.Context) {
	h.listDomains(c, "whitelist")
}

// GetBlacklist godoc
// @Summary List blacklisted domains
// @Tags filtering
// @Produce json
// @Success 200 {object} models.DomainListResponse
// @Security ApiKeyAuth
// @Router /filtering/blacklist [get]
func (h *Handler) GetBlacklist(c *gin.Context) {
	h.listDomains(c, "blacklist")
}

func (h *Handler) listDomains(c *gin.Context, list string) {
	pe := h.eng.Policy()
	if pe == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "engine not running"})
		return
	}
	var domains []string
	if list == "whitelist" {
		domains = pe.WhitelistDomains()
	} else {
		domains = pe.BlacklistDomains()
	}
	c.JSON(http.StatusOK, models.DomainListResponse{List: list, Domains: domains})
}

// AddWhitelist godoc
// @Summary Add a domain to the whitelist
// @Tags filtering
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /filtering/whitelist [post]
func (h *Handler) AddWhitelist(c *gin.Context) {
	h.addDomain(c, "whitelist")
}

// AddBlacklist godoc
// @Summary Add a domain to the blacklist
// @Tags filtering
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /filtering/blacklist [post]
func (h *Handler) AddBlacklist(c *gin.Context) {
	h.addDomain(c, "blacklist")
}

func (h *Handler) addDomain(c *gin.Context, list string) {
	var req models.DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	pe := h.eng.Policy()
	if pe == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "engine not running"})
		return
	}
	if list == "whitelist" {
		pe.AddToWhitelist(req.Domain)
	} else {
		pe.AddToBlacklist(req.Domain)
	}
	pe.AddEntry(filtering.ListEntry{
		Domain:  req.Domain,
		List:    list,
		Source:  "manual",
		Reason:  req.Reason,
		AddedAt: time.Now(),
	})
	c.JSON(http.StatusOK, models.StatusResponse{Status: "added"})
}

// RemoveWhitelist godoc
// @Summary Remove a domain from the whitelist
// @Tags filtering
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /filtering/whitelist [delete]
func (h *Handler) RemoveWhitelist(c *gin.Context) {
	h.removeDomain(c, "whitelist")
}

// RemoveBlacklist godoc
// @Summary Remove a domain from the blacklist
// @Tags filtering
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /filtering/blacklist [delete]
func (h *Handler) RemoveBlacklist(c *gin.Context) {
	h.removeDomain(c, "blacklist")
}

func (h *Handler) removeDomain(c *gin.Context, list string) {
	var req models.DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	pe := h.eng.Policy()
	if pe == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "engine not running"})
		return
	}
	if list == "whitelist" {
		pe.RemoveFromWhitelist(req.Domain)
	} else {
		pe.RemoveFromBlacklist(req.Domain)
	}
	pe.RemoveEntry(list, req.Domain)
	c.JSON(http.StatusOK, models.StatusResponse{Status: "removed"})
}

// FilteringStats godoc
// @Summary Domain filtering counters
// @Tags filtering
// @Produce json
// @Success 200 {object} models.FilteringStatsResponse
// @Security ApiKeyAuth
// @Router /filtering/stats [get]
func (h *Handler) FilteringStats(c *gin.Context) {
	pe := h.eng.Policy()
	if pe == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "engine not running"})
		return
	}
	stats := pe.Stats()
	c.JSON(http.StatusOK, models.FilteringStatsResponse{
		Enabled:        stats.Enabled,
		QueriesTotal:   stats.QueriesTotal,
		QueriesBlocked: stats.QueriesBlocked,
		QueriesAllowed: stats.QueriesAllowed,
		WhitelistSize:  stats.WhitelistSize,
		BlacklistSize:  stats.BlacklistSize,
	})
}

// SetFilteringEnabled godoc
// @Summary Enable or disable domain filtering
// @Tags filtering
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /filtering/enabled [put]
func (h *Handler) SetFilteringEnabled(c *gin.Context) {
	var req models.EnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	pe := h.eng.Policy()
	if pe == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "engine not running"})
		return
	}
	pe.SetEnabled(req.Enabled)

	cfg := h.config()
	cfg.Filtering.Enabled = req.Enabled
	h.setConfig(cfg)
	c.JSON(http.StatusOK, models.StatusResponse{Status: "updated"})
}
