package handlers

import (
	"encoding/json"
	"net/http"

	"chosei-backend/internal/middleware"
	"chosei-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ChatHandler handles event chat HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// PostChatRequest is the body for posting a chat message
type PostChatRequest struct {
	Message string `json:"message"`
}

// PostChat handles POST /api/v1/events/{event_id}/chats
func (h *ChatHandler) PostChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	eventID, ok := eventIDParam(r)
	if !ok {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	var req PostChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		respondError(w, "message is required", http.StatusBadRequest)
		return
	}

	chat, err := h.chatService.PostChat(ctx, eventID, userID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("event_id", eventID).Msg("Failed to post chat message")
		respondError(w, "Failed to post message", statusFromError(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("event_id", eventID).
		Int64("chat_id", chat.ID).
		Msg("Chat message posted")

	respondJSON(w, chat, http.StatusCreated)
}

// GetChat handles GET /api/v1/events/{event_id}/chats
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := eventIDParam(r)
	if !ok {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	chats, err := h.chatService.GetChat(ctx, eventID)
	if err != nil {
		log.Error().Err(err).Int64("event_id", eventID).Msg("Failed to get chat messages")
		respondError(w, "Failed to get messages", statusFromError(err))
		return
	}

	respondJSON(w, map[string]interface{}{"chats": chats}, http.StatusOK)
}
