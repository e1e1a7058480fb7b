package services

import (
	"context"

	"chosei-backend/internal/models"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, name, bio, avatarURL *string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// EventStore persists events
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateWithReset(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int64) error
	ListByHolder(ctx context.Context, holderID string) ([]*models.Event, error)
	ListByParticipant(ctx context.Context, userID string) ([]*models.EventSummary, error)
}

// ParticipantStore persists participants
type ParticipantStore interface {
	Create(ctx context.Context, participant *models.Participant) error
	GetByID(ctx context.Context, id int64) (*models.Participant, error)
	GetByEventAndUser(ctx context.Context, eventID int64, userID string) (*models.Participant, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.ParticipantView, error)
	ListPushTokensByEvent(ctx context.Context, eventID int64, excludeUserID string) (map[string]string, error)
	UpdateAttendance(ctx context.Context, id int64, attendance []models.AttendanceStatus, remarks string) error
	Delete(ctx context.Context, id int64) error
}

// ChatStore persists chat messages
type ChatStore interface {
	Create(ctx context.Context, chat *models.ChatMessage) error
	ListByEvent(ctx context.Context, eventID int64) ([]*models.ChatMessageView, error)
}
