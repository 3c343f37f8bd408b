package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sceneseek/sceneseek/internal/chat"
	"github.com/sceneseek/sceneseek/internal/middleware"
)

// MaxChatMessages caps the conversation history accepted per request.
const MaxChatMessages = 50

// ChatHandlers holds dependencies for the chat endpoint. client may be
// nil when no API key is configured; the endpoint then answers 503.
type ChatHandlers struct {
	client *chat.Client
	logger *slog.Logger
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(client *chat.Client, logger *slog.Logger) *ChatHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandlers{client: client, logger: logger}
}

// ChatRequest carries the conversation so far, oldest message first.
type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /chat.
func (h *ChatHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	if h.client == nil {
		WriteError(w, r, http.StatusServiceUnavailable, ErrCodeUnavailable, "Chat is not configured")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if len(req.Messages) == 0 {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "messages must not be empty")
		return
	}
	if len(req.Messages) > MaxChatMessages {
		WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "too many messages")
		return
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Role) == "" || strings.TrimSpace(m.Content) == "" {
			WriteError(w, r, http.StatusBadRequest, ErrCodeValidation, "every message needs a role and content")
			return
		}
	}

	subject := middleware.GetSubject(r.Context())
	reply, err := h.client.Complete(r.Context(), subject, req.Messages)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "chat completion failed", "error", err)
		WriteError(w, r, http.StatusBadGateway, ErrCodeUnavailable, "Chat backend error")
		return
	}

	writeJSON(w, r, http.StatusOK, ChatResponse{Reply: reply})
}
