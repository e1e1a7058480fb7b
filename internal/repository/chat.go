package repository

import (
	"context"
	"fmt"

	"chosei-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chat messages
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create appends a chat message and fills in its assigned ID
func (r *ChatRepository) Create(ctx context.Context, chat *models.ChatMessage) error {
	query := `
		INSERT INTO chats (event_id, user_id, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		chat.EventID, chat.UserID, chat.Message, chat.CreatedAt,
	).Scan(&chat.ID)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListByEvent retrieves the full chat history for an event in
// creation order, joined with the authors' display fields. There is
// no pagination: every message is returned on every read.
func (r *ChatRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.ChatMessageView, error) {
	query := `
		SELECT c.id, c.event_id, c.user_id, c.message, c.created_at,
		       u.name, u.avatar_url
		FROM chats c
		JOIN users u ON u.id = c.user_id
		WHERE c.event_id = $1
		ORDER BY c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var chats []*models.ChatMessageView
	for rows.Next() {
		var view models.ChatMessageView
		err := rows.Scan(
			&view.ID, &view.EventID, &view.UserID, &view.Message, &view.CreatedAt,
			&view.Name, &view.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		chats = append(chats, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}
	return chats, nil
}
