package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// okResponse acknowledges an accepted command.
type okResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// resetScheduledResponse acknowledges a command that will restart the
// appliance after a grace period.
type resetScheduledResponse struct {
	Success  bool   `json:"success"`
	WaitSecs uint32 `json:"wait_secs"`
}

// errResponse is the uniform error envelope. Code carries the numeric HTTP
// status so clients decode errors without reaching into the transport layer.
type errResponse struct {
	Code    uint16 `json:"code"`
	Message string `json:"message"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, errResponse{Code: uint16(httpCode), Message: userMsg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errResponse{Code: http.StatusBadRequest, Message: msg})
}
