package services

import (
	"context"
	"fmt"
	"sync"

	"chosei-backend/internal/models"
	"chosei-backend/internal/repository"
)

// In-memory stand-ins for the pgx repositories. They mirror the
// repository contracts closely enough to exercise the services,
// including the coupled update+reset and children-first delete.

type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id string, name, bio, avatarURL *string) error {
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	if name != nil {
		user.Name = name
	}
	if bio != nil {
		user.Bio = bio
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}
	return nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	user, ok := f.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, repository.ErrNotFound)
	}
	user.PushToken = pushToken
	return nil
}

type fakeParticipantStore struct {
	nextID int64
	rows   map[int64]*models.Participant
	users  *fakeUserStore
}

func (f *fakeParticipantStore) Create(_ context.Context, participant *models.Participant) error {
	f.nextID++
	participant.ID = f.nextID
	clone := *participant
	f.rows[participant.ID] = &clone
	return nil
}

func (f *fakeParticipantStore) GetByID(_ context.Context, id int64) (*models.Participant, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	clone := *row
	return &clone, nil
}

func (f *fakeParticipantStore) GetByEventAndUser(_ context.Context, eventID int64, userID string) (*models.Participant, error) {
	for _, row := range f.rows {
		if row.EventID == eventID && row.UserID == userID {
			clone := *row
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("participant for event %d user %s: %w", eventID, userID, repository.ErrNotFound)
}

func (f *fakeParticipantStore) ListByEvent(_ context.Context, eventID int64) ([]*models.ParticipantView, error) {
	var views []*models.ParticipantView
	for _, row := range f.rows {
		if row.EventID != eventID {
			continue
		}
		view := &models.ParticipantView{Participant: *row}
		if user, ok := f.users.users[row.UserID]; ok {
			view.Name = user.Name
			view.AvatarURL = user.AvatarURL
		}
		views = append(views, view)
	}
	return views, nil
}

func (f *fakeParticipantStore) ListPushTokensByEvent(_ context.Context, eventID int64, excludeUserID string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, row := range f.rows {
		if row.EventID != eventID || row.UserID == excludeUserID {
			continue
		}
		user, ok := f.users.users[row.UserID]
		if !ok || user.PushToken == nil {
			continue
		}
		tokens[row.UserID] = *user.PushToken
	}
	return tokens, nil
}

func (f *fakeParticipantStore) UpdateAttendance(_ context.Context, id int64, attendance []models.AttendanceStatus, remarks string) error {
	row, ok := f.rows[id]
	if !ok {
		return fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	row.Attendance = attendance
	row.Remarks = remarks
	return nil
}

func (f *fakeParticipantStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("participant %d: %w", id, repository.ErrNotFound)
	}
	delete(f.rows, id)
	return nil
}

type fakeChatStore struct {
	nextID int64
	rows   []*models.ChatMessage
	users  *fakeUserStore
}

func (f *fakeChatStore) Create(_ context.Context, chat *models.ChatMessage) error {
	f.nextID++
	chat.ID = f.nextID
	clone := *chat
	f.rows = append(f.rows, &clone)
	return nil
}

func (f *fakeChatStore) ListByEvent(_ context.Context, eventID int64) ([]*models.ChatMessageView, error) {
	var views []*models.ChatMessageView
	for _, row := range f.rows {
		if row.EventID != eventID {
			continue
		}
		view := &models.ChatMessageView{ChatMessage: *row}
		if user, ok := f.users.users[row.UserID]; ok {
			view.Name = user.Name
			view.AvatarURL = user.AvatarURL
		}
		views = append(views, view)
	}
	return views, nil
}

func (f *fakeChatStore) deleteByEvent(eventID int64) {
	var kept []*models.ChatMessage
	for _, row := range f.rows {
		if row.EventID != eventID {
			kept = append(kept, row)
		}
	}
	f.rows = kept
}

type fakeEventStore struct {
	nextID       int64
	events       map[int64]*models.Event
	participants *fakeParticipantStore
	chats        *fakeChatStore
}

func (f *fakeEventStore) Create(_ context.Context, event *models.Event) error {
	f.nextID++
	event.ID = f.nextID
	clone := *event
	f.events[event.ID] = &clone
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id int64) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	clone := *event
	return &clone, nil
}

func (f *fakeEventStore) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.events[id]
	return ok, nil
}

func (f *fakeEventStore) UpdateWithReset(_ context.Context, event *models.Event) error {
	stored, ok := f.events[event.ID]
	if !ok {
		return fmt.Errorf("event %d: %w", event.ID, repository.ErrNotFound)
	}
	stored.Title = event.Title
	stored.Description = event.Description
	stored.Candidates = event.Candidates
	for _, row := range f.participants.rows {
		if row.EventID == event.ID {
			row.Attendance = []models.AttendanceStatus{}
			row.Remarks = ""
		}
	}
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.events[id]; !ok {
		return fmt.Errorf("event %d: %w", id, repository.ErrNotFound)
	}
	for participantID, row := range f.participants.rows {
		if row.EventID == id {
			delete(f.participants.rows, participantID)
		}
	}
	f.chats.deleteByEvent(id)
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) ListByHolder(_ context.Context, holderID string) ([]*models.Event, error) {
	var events []*models.Event
	for _, event := range f.events {
		if event.HolderID == holderID {
			clone := *event
			events = append(events, &clone)
		}
	}
	return events, nil
}

func (f *fakeEventStore) ListByParticipant(_ context.Context, userID string) ([]*models.EventSummary, error) {
	var summaries []*models.EventSummary
	for _, row := range f.participants.rows {
		if row.UserID != userID {
			continue
		}
		event, ok := f.events[row.EventID]
		if !ok {
			continue
		}
		summary := &models.EventSummary{
			ID:          event.ID,
			Title:       event.Title,
			Description: event.Description,
			CreatedAt:   event.CreatedAt,
		}
		if holder, ok := f.users().users[event.HolderID]; ok {
			summary.HolderName = holder.Name
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (f *fakeEventStore) users() *fakeUserStore {
	return f.participants.users
}

func newFakeStores() (*fakeUserStore, *fakeEventStore, *fakeParticipantStore, *fakeChatStore) {
	users := &fakeUserStore{users: make(map[string]*models.User)}
	participants := &fakeParticipantStore{rows: make(map[int64]*models.Participant), users: users}
	chats := &fakeChatStore{users: users}
	events := &fakeEventStore{events: make(map[int64]*models.Event), participants: participants, chats: chats}
	return users, events, participants, chats
}

// fakePusher records push deliveries
type fakePusher struct {
	mu     sync.Mutex
	pushed []string // device tokens
}

func (f *fakePusher) Push(deviceToken, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, deviceToken)
	return nil
}

func (f *fakePusher) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pushed...)
}

// fakeConn records websocket writes
type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	closed   bool
	writeErr error
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

func strptr(s string) *string {
	return &s
}
