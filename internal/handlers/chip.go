package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Restart appliance
// @Description  Schedules a restart after the configured grace period so the HTTP response can still be delivered.
// @Tags         chip
// @Produce      json
// @Success      200  {object}  resetScheduledResponse
// @Router       /api/v1/chip/reset [post]
func (h *Handler) chipReset(c *gin.Context) {
	wait := h.services.ChipControl.RequestReset(c.Request.Context())
	if h.log != nil {
		h.log.Infow("chip_reset_requested", "wait_secs", wait)
	}
	c.JSON(http.StatusOK, resetScheduledResponse{Success: true, WaitSecs: wait})
}
