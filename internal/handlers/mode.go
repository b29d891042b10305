package handlers

import (
	"errors"
	"io"
	"net/http"

	"mistctl"

	"github.com/gin-gonic/gin"
)

const errInvalidBodyPref = "invalid body: "

// Request DTO for changing the mode.
type changeModeRequest struct {
	Mode *mistctl.Mode `json:"mode"` // auto | off | on; omit to toggle
}

// ChangeModeRequest is an exported model for Swagger docs of the changeMode payload.
type ChangeModeRequest struct {
	// Mode to set. Allowed: auto, off, on. Omit the field (or send an empty
	// body) to advance to the next mode in the toggle order.
	Mode string `json:"mode,omitempty" example:"auto"`
}

type modeResponse struct {
	Mode *mistctl.Mode `json:"mode,omitempty"`
}

// @Summary      Get mode
// @Tags         mode
// @Produce      json
// @Success      200  {object}  modeResponse
// @Router       /api/v1/mode [get]
func (h *Handler) getMode(c *gin.Context) {
	c.JSON(http.StatusOK, modeResponse{Mode: h.services.ModeControl.Mode(c.Request.Context())})
}

// @Summary      Change mode
// @Description  Requests a mode change. An empty body (or omitted "mode") cycles auto -> off -> on -> auto.
// @Tags         mode
// @Accept       json
// @Produce      json
// @Param        body  body   ChangeModeRequest  false  "Mode payload"
// @Success      200   {object}  okResponse
// @Failure      400   {object}  errResponse
// @Router       /api/v1/mode/change [post]
func (h *Handler) changeMode(c *gin.Context) {
	var req changeModeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, errInvalidBodyPref+err.Error())
		return
	}
	if err := h.services.ModeControl.Change(c.Request.Context(), req.Mode); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, okResponse{Success: true})
}
