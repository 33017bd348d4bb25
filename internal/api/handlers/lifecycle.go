package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dnsproxy/internal/api/models"
	"dnsproxy/internal/engine"
)

// LifecycleState godoc
// @Summary Engine lifecycle state
// @Tags lifecycle
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /lifecycle/state [get]
func (h *Handler) LifecycleState(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: h.eng.State().String()})
}

// LifecycleStart godoc
// @Summary Start the resolver pipeline
// @Tags lifecycle
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /lifecycle/start [post]
func (h *Handler) LifecycleStart(c *gin.Context) {
	h.respondTransition(c, h.eng.Start(c.Request.Context()))
}

// LifecycleStop godoc
// @Summary Stop the resolver pipeline
// @Tags lifecycle
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /lifecycle/stop [post]
func (h *Handler) LifecycleStop(c *gin.Context) {
	h.respondTransition(c, h.eng.Stop())
}

// LifecycleToggle godoc
// @Summary Start a stopped engine or stop a running one
// @Tags lifecycle
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /lifecycle/toggle [post]
func (h *Handler) LifecycleToggle(c *gin.Context) {
	h.respondTransition(c, h.eng.Toggle(c.Request.Context()))
}

func (h *Handler) respondTransition(c *gin.Context, err error) {
	var illegal engine.IllegalState
	if errors.As(err, &illegal) {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: illegal.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: h.eng.State().String()})
}
