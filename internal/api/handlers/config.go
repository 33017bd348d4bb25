package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/models"
	"dnsproxy/internal/store"
)

// GetConfig godoc
// @Summary Get the running configuration
// @Tags config
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Security ApiKeyAuth
// @Router /config [get]
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewConfigResponse(h.config()))
}

// PutConfig godoc
// @Summary Replace the running configuration and apply it without a restart
// @Tags config
// @Accept json
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /config [put]
func (h *Handler) PutConfig(c *gin.Context) {
	var resp models.ConfigResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.eng.UpdateResolverConfig(resp.Config); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	h.setConfig(resp.Config)
	c.JSON(http.StatusOK, models.NewConfigResponse(resp.Config))
}

// PutStorageDrivers godoc
// @Summary Swap the storage drivers backing the cache, domain lists, and query log
// @Tags config
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /storage/drivers [put]
func (h *Handler) PutStorageDrivers(c *gin.Context) {
	var req models.StorageDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	cfg := h.config()
	opts := store.Options{
		CacheDriver: firstNonEmpty(req.CacheDriver, cfg.Storage.CacheDriver),
		ListDriver:  firstNonEmpty(req.ListDriver, cfg.Storage.ListDriver),
		LogDriver:   firstNonEmpty(req.LogDriver, cfg.Storage.LogDriver),
		FileDir:     cfg.Storage.DataDir,
	}

	if err := h.eng.UpdateDrivers(opts); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	cfg.Storage.CacheDriver = opts.CacheDriver
	cfg.Storage.ListDriver = opts.ListDriver
	cfg.Storage.LogDriver = opts.LogDriver
	h.setConfig(cfg)
	c.JSON(http.StatusOK, models.StatusResponse{Status: "updated"})
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
