package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chosei-backend/internal/models"
	"chosei-backend/internal/repository"
)

// ErrNotHolder is returned when a user tries to mutate an event they
// do not hold.
var ErrNotHolder = errors.New("user is not the holder of this event")

// ErrNotParticipant is returned when a user tries to act on a
// participant row that is not their own.
var ErrNotParticipant = errors.New("participant row does not belong to this user")

// JoinStatus tags the outcome of ParticipateInEvent. Callers branch
// on it; a missing event is a result variant here, not an error.
type JoinStatus int

const (
	Joined JoinStatus = iota
	AlreadyJoined
	EventNotFound
)

// JoinResult is the outcome of an idempotent event join
type JoinResult struct {
	Status      JoinStatus
	Participant *models.Participant
}

// EventDetail is an event together with its participants (joined to
// user display fields) and the derived max-attendance index set.
type EventDetail struct {
	Event         *models.Event             `json:"event"`
	Participants  []*models.ParticipantView `json:"participants"`
	MaxAttendance []int                     `json:"max_attendance"`
}

// EventService handles event, participation and attendance logic
type EventService struct {
	eventRepo       EventStore
	participantRepo ParticipantStore
}

// NewEventService creates a new event service
func NewEventService(eventRepo EventStore, participantRepo ParticipantStore) *EventService {
	return &EventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
	}
}

// CreateEvent creates a new event held by the given user. Candidates
// are stored in the order the caller submitted them.
func (s *EventService) CreateEvent(ctx context.Context, holderID, title string, description *string, candidates []string) (*models.Event, error) {
	event := &models.Event{
		Title:       title,
		Description: description,
		Candidates:  candidates,
		HolderID:    holderID,
		CreatedAt:   time.Now(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

// UpdateEvent replaces the event's title, description and candidate
// list. Every participant's attendance vector and remarks are reset
// unconditionally in the same transaction: the two edits arrive
// coupled and recorded attendance no longer matches the new
// candidates. Only the holder may update.
func (s *EventService) UpdateEvent(ctx context.Context, eventID int64, userID, title string, description *string, candidates []string) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.HolderID != userID {
		return nil, ErrNotHolder
	}

	event.Title = title
	event.Description = description
	event.Candidates = candidates
	if err := s.eventRepo.UpdateWithReset(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent deletes an event with its participants and chat
// messages. Only the holder may delete.
func (s *EventService) DeleteEvent(ctx context.Context, eventID int64, userID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.HolderID != userID {
		return ErrNotHolder
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// GetEvent retrieves an event with its participants and the derived
// max-attendance index set.
func (s *EventService) GetEvent(ctx context.Context, eventID int64) (*EventDetail, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &EventDetail{
		Event:         event,
		Participants:  participants,
		MaxAttendance: MaxAttendanceSlots(len(event.Candidates), participants),
	}, nil
}

// GetEvents lists the events the user participates in
func (s *EventService) GetEvents(ctx context.Context, userID string) ([]*models.EventSummary, error) {
	return s.eventRepo.ListByParticipant(ctx, userID)
}

// GetHoldingEvents lists the events the user holds
func (s *EventService) GetHoldingEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	return s.eventRepo.ListByHolder(ctx, userID)
}

// ParticipateInEvent joins a user to an event. The join is idempotent
// per (user, event): a second call finds the existing row and creates
// nothing. A missing event is reported through the result status.
func (s *EventService) ParticipateInEvent(ctx context.Context, userID string, eventID int64) (*JoinResult, error) {
	exists, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &JoinResult{Status: EventNotFound}, nil
	}

	participant, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err == nil {
		return &JoinResult{Status: AlreadyJoined, Participant: participant}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	participant = &models.Participant{
		EventID:    eventID,
		UserID:     userID,
		Attendance: []models.AttendanceStatus{},
		Remarks:    "",
		CreatedAt:  time.Now(),
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		return nil, err
	}
	return &JoinResult{Status: Joined, Participant: participant}, nil
}

// WithdrawEvent deletes the user's own participant row
func (s *EventService) WithdrawEvent(ctx context.Context, participantID int64, userID string) error {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.UserID != userID {
		return ErrNotParticipant
	}
	return s.participantRepo.Delete(ctx, participantID)
}

// UpdateAttendance overwrites the user's own attendance vector and
// remarks wholesale; there is no per-slot merge.
func (s *EventService) UpdateAttendance(ctx context.Context, participantID int64, userID string, attendance []models.AttendanceStatus, remarks string) error {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.UserID != userID {
		return ErrNotParticipant
	}
	return s.participantRepo.UpdateAttendance(ctx, participantID, attendance, remarks)
}

// MaxAttendanceSlots counts, per candidate index, the participants
// whose attendance at that index is "attending", and returns the
// indices achieving the maximum count. Ties are not broken: every
// index sharing the maximum is returned. A stateless fold over
// already-loaded data.
func MaxAttendanceSlots(candidateCount int, participants []*models.ParticipantView) []int {
	if candidateCount == 0 {
		return nil
	}

	counts := make([]int, candidateCount)
	for _, p := range participants {
		for i, status := range p.Attendance {
			if i >= candidateCount {
				break
			}
			if status == models.Attending {
				counts[i]++
			}
		}
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	var indices []int
	for i, c := range counts {
		if c == max {
			indices = append(indices, i)
		}
	}
	return indices
}
