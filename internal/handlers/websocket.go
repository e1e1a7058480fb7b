package handlers

import (
	"net/http"
	"strconv"

	"chosei-backend/internal/middleware"
	"chosei-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler subscribes clients to an event's chat room. The
// channel is receive-only: messages are posted over HTTP and fanned
// out here.
type WebSocketHandler struct {
	hub          *services.WSHub
	userService  *services.UserService
	eventService *services.EventService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	eventService *services.EventService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		userService:  userService,
		eventService: eventService,
	}
}

// HandleWebSocket handles GET /ws?token=...&event_id=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	eventID, err := strconv.ParseInt(r.URL.Query().Get("event_id"), 10, 64)
	if err != nil {
		respondError(w, "invalid event id", http.StatusBadRequest)
		return
	}

	// Joining the room requires the event to exist; the join itself
	// stays idempotent.
	result, err := h.eventService.ParticipateInEvent(r.Context(), userID, eventID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("event_id", eventID).Msg("Failed to join event")
		respondError(w, "failed to join event", http.StatusInternalServerError)
		return
	}
	if result.Status == services.EventNotFound {
		respondError(w, "event not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	clientID := uuid.New().String()
	h.hub.Register(eventID, clientID, userID, conn)
	defer h.hub.Unregister(eventID, clientID)

	log.Info().
		Str("user_id", userID).
		Int64("event_id", eventID).
		Msg("WebSocket connection established")

	// Drain the connection until it closes. Clients do not send
	// messages on this channel; chat posting goes over HTTP.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}
	}
}
