package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pipeline-expert/internal/app"
	"pipeline-expert/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Message   string     `json:"message"`
	History   []app.Turn `json:"history"`
	SessionID string     `json:"sessionId"`
	UserID    string     `json:"userId"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), app.ChatInput{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   req.History,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, "Message is required")
		case errors.Is(err, app.ErrUserRequired):
			response.Error(c, http.StatusUnauthorized, "User ID is required")
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to get response from AI",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Test verifies the model API connection with a fixed probe prompt.
func (h *ChatHandler) Test(c *gin.Context) {
	reply, err := h.chatService.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": reply,
	})
}
