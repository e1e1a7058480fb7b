package repository

import (
	"context"
	"errors"
	"fmt"

	"chosei-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles database operations for events
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event and fills in its assigned ID
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, candidates, holder_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		event.Title, event.Description, event.Candidates, event.HolderID, event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, title, description, candidates, holder_id, created_at
		FROM events
		WHERE id = $1
	`
	var event models.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Title, &event.Description, &event.Candidates,
		&event.HolderID, &event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// Exists checks whether an event with the given ID exists
func (r *EventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// UpdateWithReset replaces the event's title, description and
// candidate list, and clears every participant's attendance vector
// and remarks. Both writes run in one transaction: editing the
// candidates invalidates all recorded attendance.
func (r *EventRepository) UpdateWithReset(ctx context.Context, event *models.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE events
		SET title = $1, description = $2, candidates = $3
		WHERE id = $4
	`, event.Title, event.Description, event.Candidates, event.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", event.ID, ErrNotFound)
	}

	_, err = tx.Exec(ctx, `
		UPDATE participants
		SET attendance = '{}', remarks = ''
		WHERE event_id = $1
	`, event.ID)
	if err != nil {
		return fmt.Errorf("failed to reset participant attendance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit event update: %w", err)
	}
	return nil
}

// Delete removes the event together with its participants and chat
// messages, children before parent, in one transaction. The store is
// not assumed to cascade on its own.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chats WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete chats: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit event deletion: %w", err)
	}
	return nil
}

// ListByHolder retrieves events held by the given user
func (r *EventRepository) ListByHolder(ctx context.Context, holderID string) ([]*models.Event, error) {
	query := `
		SELECT id, title, description, candidates, holder_id, created_at
		FROM events
		WHERE holder_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holding events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID, &event.Title, &event.Description, &event.Candidates,
			&event.HolderID, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// ListByParticipant retrieves events the given user participates in,
// joined with the holder's display name.
func (r *EventRepository) ListByParticipant(ctx context.Context, userID string) ([]*models.EventSummary, error) {
	query := `
		SELECT e.id, e.title, e.description, u.name, e.created_at
		FROM participants p
		JOIN events e ON e.id = p.event_id
		JOIN users u ON u.id = e.holder_id
		WHERE p.user_id = $1
		ORDER BY e.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.EventSummary
	for rows.Next() {
		var summary models.EventSummary
		err := rows.Scan(
			&summary.ID, &summary.Title, &summary.Description,
			&summary.HolderName, &summary.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event summary: %w", err)
		}
		events = append(events, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event summaries: %w", err)
	}
	return events, nil
}
