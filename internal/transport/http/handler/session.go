package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipeline-expert/internal/app"
	"pipeline-expert/internal/model"
	"pipeline-expert/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ListSessions returns one row per session across all users, newest first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	heads, err := h.sessionService.ListSessions()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "List sessions failed")
		return
	}
	c.JSON(http.StatusOK, heads)
}

func (h *SessionHandler) ListUserSessions(c *gin.Context) {
	heads, err := h.sessionService.ListUserSessions(c.Param("userId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "List user sessions failed")
		return
	}
	c.JSON(http.StatusOK, heads)
}

// SessionMessages always answers with a JSON array, even for a session id
// nothing has been written under yet.
func (h *SessionHandler) SessionMessages(c *gin.Context) {
	messages, err := h.sessionService.SessionMessages(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "List session messages failed")
		return
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}
