package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// Events godoc
// @Summary Stream resolver events (queries, lifecycle changes, config updates) as Server-Sent Events
// @Tags events
// @Produce text/event-stream
// @Security ApiKeyAuth
// @Router /events [get]
func (h *Handler) Events(c *gin.Context) {
	sub := h.eng.Events().Subscribe()
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-sub.Events():
			if !ok {
				return false
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload)
			if sub.Lagged() {
				fmt.Fprint(w, "event: lagged\ndata: {}\n\n")
			}
			return true
		}
	})
}
