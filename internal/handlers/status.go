package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Appliance status
// @Description  Current mode, mister status, auto-schedule progress, and last sensor reading. Fields not yet known are omitted.
// @Tags         status
// @Produce      json
// @Success      200  {object}  service.StatusView
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status(c.Request.Context()))
}
