package models

import "time"

// AttendanceStatus is a participant's answer for one candidate slot.
type AttendanceStatus string

const (
	Attending AttendanceStatus = "attending"
	Absent    AttendanceStatus = "absent"
	Undecided AttendanceStatus = "undecided"
)

// Valid reports whether s is one of the known attendance values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case Attending, Absent, Undecided:
		return true
	}
	return false
}

// User represents a user in the system. The ID is assigned by the
// identity provider on first authentication.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event represents a schedulable activity with candidate date-times.
// Candidates are ISO-8601 strings kept in the order the holder
// submitted them.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Candidates  []string  `json:"candidates"`
	HolderID    string    `json:"holder_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participant links one user to one event and carries the per-slot
// attendance vector plus a free-text remark.
type Participant struct {
	ID         int64              `json:"id"`
	EventID    int64              `json:"event_id"`
	UserID     string             `json:"user_id"`
	Attendance []AttendanceStatus `json:"attendance"`
	Remarks    string             `json:"remarks"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ParticipantView is a participant joined with the user's display
// fields, as shown on the event page.
type ParticipantView struct {
	Participant
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ChatMessage represents one message in an event's chat. Messages are
// append-only; they are removed only when the event is deleted.
type ChatMessage struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessageView is a chat message joined with the author's display
// fields.
type ChatMessageView struct {
	ChatMessage
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// EventSummary is a row in a user's event list: the event plus the
// holder's display name.
type EventSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	HolderName  *string   `json:"holder_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
