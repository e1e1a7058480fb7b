package services

import (
	"context"
	"time"

	"chosei-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Pusher delivers a push notification to one device
type Pusher interface {
	Push(deviceToken, title, body string) error
}

// ChatService handles event chat. Messages are append-only; the
// service appends, fans out to the event's open websocket sessions,
// and pushes to participants who are not connected.
type ChatService struct {
	chatRepo        ChatStore
	userRepo        UserStore
	participantRepo ParticipantStore
	hub             *WSHub
	pusher          Pusher
}

// NewChatService creates a new chat service. pusher may be nil when
// push notifications are not configured.
func NewChatService(chatRepo ChatStore, userRepo UserStore, participantRepo ParticipantStore, hub *WSHub, pusher Pusher) *ChatService {
	return &ChatService{
		chatRepo:        chatRepo,
		userRepo:        userRepo,
		participantRepo: participantRepo,
		hub:             hub,
		pusher:          pusher,
	}
}

// PostChat appends a message to an event's chat and returns it joined
// with the author's display fields. Delivery to other open sessions
// and offline devices is best-effort: the message is already stored.
func (s *ChatService) PostChat(ctx context.Context, eventID int64, userID, message string) (*models.ChatMessageView, error) {
	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	chat := &models.ChatMessage{
		EventID:   eventID,
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	view := &models.ChatMessageView{
		ChatMessage: *chat,
		Name:        author.Name,
		AvatarURL:   author.AvatarURL,
	}

	s.hub.Broadcast(eventID, WSMessage{Type: "chat_message", Data: view})
	go s.pushToOffline(eventID, userID, authorName(author), message)

	return view, nil
}

// GetChat returns an event's full chat history in creation order
func (s *ChatService) GetChat(ctx context.Context, eventID int64) ([]*models.ChatMessageView, error) {
	return s.chatRepo.ListByEvent(ctx, eventID)
}

// pushToOffline notifies participants who registered a device token
// and have no open websocket on this event.
func (s *ChatService) pushToOffline(eventID int64, senderID, senderName, message string) {
	if s.pusher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := s.participantRepo.ListPushTokensByEvent(ctx, eventID, senderID)
	if err != nil {
		log.Error().Err(err).Int64("event_id", eventID).Msg("Failed to list push tokens")
		return
	}

	for userID, token := range tokens {
		if s.hub.IsOnline(eventID, userID) {
			continue
		}
		if err := s.pusher.Push(token, senderName, message); err != nil {
			log.Error().
				Err(err).
				Int64("event_id", eventID).
				Str("user_id", userID).
				Msg("Failed to push chat notification")
		}
	}
}

func authorName(user *models.User) string {
	if user.Name != nil && *user.Name != "" {
		return *user.Name
	}
	return user.Email
}
