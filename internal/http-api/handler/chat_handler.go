package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
)

// MessageRouter turns an inbound message into reply text
type MessageRouter interface {
	HandleMessage(ctx context.Context, message string) string
}

type ChatHandler struct {
	router MessageRouter
	logger *slog.Logger
}

func NewChatHandler(router MessageRouter, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		router: router,
		logger: logger,
	}
}

// RegisterRoutes registers the webhook route
func (h *ChatHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/chat", h.Chat)
}

// Chat answers an inbound WhatsApp message with a TwiML reply
// POST /chat (form field Body)
func (h *ChatHandler) Chat(c *gin.Context) {
	// Twilio posts form data; query string is accepted too
	body, ok := c.GetPostForm("Body")
	if !ok {
		body = c.Query("Body")
	}
	message := strings.ToLower(body)

	reply := h.router.HandleMessage(c.Request.Context(), message)

	envelope, err := twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: reply},
	})
	if err != nil {
		h.logger.Error("failed to encode twiml reply", "error", err)
		c.String(http.StatusInternalServerError, "failed to encode reply")
		return
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(envelope))
}
