package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/chat"
)

// Asker answers a tutor question.
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// ChatHandler is the JSON chatbot endpoint.
type ChatHandler struct {
	tutor Asker
}

func NewChatHandler(tutor Asker) *ChatHandler {
	return &ChatHandler{tutor: tutor}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Handle 仅接受 POST {"message"}；其他方法返回 405。
func (h *ChatHandler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		Error(c, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid JSON body")
		return
	}

	answer, err := h.tutor.Ask(c.Request.Context(), req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"response": answer})
	case errors.Is(err, chat.ErrEmptyMessage):
		BadRequest(c, "No message provided")
	case errors.Is(err, chat.ErrNotConfigured):
		Internal(c, "The tutor is not configured. Set GEMINI_API_KEY and restart the server.")
	default:
		middleware.LoggerFromContext(c).Error("chat failed", slog.Any("error", err))
		Internal(c, "The AI tutor is currently unavailable. Please try again later.")
	}
}
