package repository

import (
	"context"
	"errors"
	"fmt"

	"chosei-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ParticipantRepository handles database operations for participants
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// attendance is stored as text[]; pgx scans it as []string.
func attendanceFromStrings(values []string) []models.AttendanceStatus {
	attendance := make([]models.AttendanceStatus, len(values))
	for i, v := range values {
		attendance[i] = models.AttendanceStatus(v)
	}
	return attendance
}

func attendanceToStrings(attendance []models.AttendanceStatus) []string {
	values := make([]string, len(attendance))
	for i, a := range attendance {
		values[i] = string(a)
	}
	return values
}

// Create creates a new participant row with an empty attendance
// vector and fills in its assigned ID.
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (event_id, user_id, attendance, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		participant.EventID, participant.UserID,
		attendanceToStrings(participant.Attendance), participant.Remarks, participant.CreatedAt,
	).Scan(&participant.ID)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// GetByID retrieves a participant by ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*models.Participant, error) {
	query := `
		SELECT id, event_id, user_id, attendance, remarks, created_at
		FROM participants
		WHERE id = $1
	`
	var participant models.Participant
	var attendance []string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&participant.ID, &participant.EventID, &participant.UserID,
		&attendance, &participant.Remarks, &participant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("participant %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	participant.Attendance = attendanceFromStrings(attendance)
	return &participant, nil
}

// GetByEventAndUser retrieves the participant row for a (event, user)
// pair.
func (r *ParticipantRepository) GetByEventAndUser(ctx context.Context, eventID int64, userID string) (*models.Participant, error) {
	query := `
		SELECT id, event_id, user_id, attendance, remarks, created_at
		FROM participants
		WHERE event_id = $1 AND user_id = $2
	`
	var participant models.Participant
	var attendance []string
	err := r.db.QueryRow(ctx, query, eventID, userID).Scan(
		&participant.ID, &participant.EventID, &participant.UserID,
		&attendance, &participant.Remarks, &participant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("participant for event %d user %s: %w", eventID, userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	participant.Attendance = attendanceFromStrings(attendance)
	return &participant, nil
}

// ListByEvent retrieves an event's participants joined with the
// users' display fields.
func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.ParticipantView, error) {
	query := `
		SELECT p.id, p.event_id, p.user_id, p.attendance, p.remarks, p.created_at,
		       u.name, u.avatar_url
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.ParticipantView
	for rows.Next() {
		var view models.ParticipantView
		var attendance []string
		err := rows.Scan(
			&view.ID, &view.EventID, &view.UserID,
			&attendance, &view.Remarks, &view.CreatedAt,
			&view.Name, &view.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		view.Attendance = attendanceFromStrings(attendance)
		participants = append(participants, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// ListPushTokensByEvent returns the registered push tokens of an
// event's participants, except the given user.
func (r *ParticipantRepository) ListPushTokensByEvent(ctx context.Context, eventID int64, excludeUserID string) (map[string]string, error) {
	query := `
		SELECT p.user_id, u.push_token
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1 AND p.user_id <> $2 AND u.push_token IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query, eventID, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	tokens := make(map[string]string)
	for rows.Next() {
		var userID, token string
		if err := rows.Scan(&userID, &token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens[userID] = token
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push tokens: %w", err)
	}
	return tokens, nil
}

// UpdateAttendance overwrites the participant's attendance vector and
// remarks wholesale.
func (r *ParticipantRepository) UpdateAttendance(ctx context.Context, id int64, attendance []models.AttendanceStatus, remarks string) error {
	query := `UPDATE participants SET attendance = $1, remarks = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, attendanceToStrings(attendance), remarks, id)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a participant row by ID
func (r *ParticipantRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %d: %w", id, ErrNotFound)
	}
	return nil
}
