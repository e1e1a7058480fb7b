package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message sent to chat subscribers
type WSMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// wsConn is the subset of *websocket.Conn the hub needs
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type roomClient struct {
	userID string
	conn   wsConn
}

// WSHub manages WebSocket subscriptions to event chat rooms. One
// client is one open socket; a user may hold several (one per open
// session).
type WSHub struct {
	mu    sync.RWMutex
	rooms map[int64]map[string]*roomClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		rooms: make(map[int64]map[string]*roomClient),
	}
}

// Register adds a connection to an event's room
func (h *WSHub) Register(eventID int64, clientID, userID string, conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[eventID]
	if !exists {
		room = make(map[string]*roomClient)
		h.rooms[eventID] = room
	}
	room[clientID] = &roomClient{userID: userID, conn: conn}

	log.Info().
		Int64("event_id", eventID).
		Str("user_id", userID).
		Msg("WebSocket connection registered")
}

// Unregister removes a connection from an event's room
func (h *WSHub) Unregister(eventID int64, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[eventID]
	if !exists {
		return
	}
	if client, exists := room[clientID]; exists {
		client.conn.Close()
		delete(room, clientID)
		log.Info().
			Int64("event_id", eventID).
			Str("user_id", client.userID).
			Msg("WebSocket connection unregistered")
	}
	if len(room) == 0 {
		delete(h.rooms, eventID)
	}
}

// Broadcast sends a message to every connection in an event's room.
// Connections that fail to write are dropped from the room.
func (h *WSHub) Broadcast(eventID int64, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[eventID]
	if !exists {
		return
	}
	for clientID, client := range room {
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().
				Err(err).
				Int64("event_id", eventID).
				Str("user_id", client.userID).
				Msg("Failed to send message, dropping connection")
			client.conn.Close()
			delete(room, clientID)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, eventID)
	}
}

// IsOnline checks whether a user has an open connection in an
// event's room.
func (h *WSHub) IsOnline(eventID int64, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[eventID] {
		if client.userID == userID {
			return true
		}
	}
	return false
}
