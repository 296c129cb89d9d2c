package handlers

import (
	"errors"
	"net/http"

	"chamberctl/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errCommandFailed   = "command failed"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// CommandRequest is the payload of POST /api/v1/commands.
type CommandRequest struct {
	// Command text exactly as sent over chat, e.g. "/fan_on"
	Command string `json:"command" binding:"required" example:"/status"`
}

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

// @Summary      Get chamber state
// @Description  Operating state, active phase band, last measurement, display and link status
// @Tags         chamber
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Snapshot())
}

// @Summary      Run a command
// @Description  Same command set as the chat channel
// @Tags         chamber
// @Accept       json
// @Produce      json
// @Param        body  body      CommandRequest  true  "Command"
// @Success      200   {object}  map[string]interface{}  "reply, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/commands [post]
// @Security     BearerAuth
func (h *Handler) postCommand(c *gin.Context) {
	var req CommandRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	reply, err := h.services.Execute(c.Request.Context(), req.Command)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCommand) {
			c.JSON(http.StatusBadRequest, gin.H{"error": reply})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errCommandFailed, "api_command_failed", err, "command", req.Command)
		return
	}
	if h.log != nil {
		h.log.Infow("api_command_handled", "command", req.Command, "remote", c.ClientIP())
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "state": h.services.Snapshot()})
}
