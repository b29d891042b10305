package handlers

import (
	"net/http"

	"mistctl/internal/config"

	"github.com/gin-gonic/gin"
)

const (
	errApplyConfig = "failed to apply configuration"
	errResetConfig = "failed to reset configuration"
)

// @Summary      Get configuration overlay
// @Description  Returns the persisted customization on top of built-in defaults. Fields left at their defaults are omitted.
// @Tags         config
// @Produce      json
// @Success      200  {object}  config.Overlay
// @Router       /api/v1/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.ConfigAdmin.Overlay(c.Request.Context()))
}

// @Summary      Update configuration
// @Description  Persists the overlay and schedules a restart so every task picks up the new values. Validation or storage failure leaves the running configuration untouched.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body   config.Overlay  true  "Configuration overlay"
// @Success      200   {object}  resetScheduledResponse
// @Failure      400   {object}  errResponse
// @Failure      500   {object}  errResponse
// @Router       /api/v1/config/update [post]
func (h *Handler) updateConfig(c *gin.Context) {
	var o config.Overlay
	if err := c.ShouldBindJSON(&o); err != nil {
		h.badRequest(c, errInvalidBodyPref+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.services.ConfigAdmin.Apply(ctx, o); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errApplyConfig+": "+err.Error(), "config_apply_failed", err)
		return
	}
	c.JSON(http.StatusOK, resetScheduledResponse{
		Success:  true,
		WaitSecs: h.services.ConfigAdmin.ResetWaitSecs(ctx),
	})
}

// @Summary      Reset configuration
// @Description  Erases the persisted overlay, falls back to built-in defaults, and schedules a restart.
// @Tags         config
// @Produce      json
// @Success      200  {object}  resetScheduledResponse
// @Failure      500  {object}  errResponse
// @Router       /api/v1/config/reset [post]
func (h *Handler) resetConfig(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.ConfigAdmin.ResetDefaults(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetConfig, "config_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, resetScheduledResponse{
		Success:  true,
		WaitSecs: h.services.ConfigAdmin.ResetWaitSecs(ctx),
	})
}
