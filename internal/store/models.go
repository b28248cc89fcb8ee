package store

import (
	"time"

	"github.com/google/uuid"
)

// Terminal ticket statuses: once a ticket reaches one of these it no longer
// counts toward a developer's open load.
var TerminalStatuses = []string{"Done", "Closed"}

// IsTerminalStatus reports whether a ticket status is terminal for analysis.
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Developer is an observed developer, identified by unique email.
type Developer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Commit is an immutable record of one code change.
type Commit struct {
	ID           string    `json:"id" db:"id"`
	DeveloperID  int64     `json:"developer" db:"developer_id"`
	Hash         string    `json:"hash_id" db:"hash"`
	Message      string    `json:"message" db:"message"`
	LinesAdded   int       `json:"lines_added" db:"lines_added"`
	LinesRemoved int       `json:"lines_removed" db:"lines_removed"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	IsMerge      bool      `json:"is_merge" db:"is_merge"`
	TicketKey    *string   `json:"ticket_key,omitempty" db:"ticket_key"`
}

// Ticket is a work item. AssigneeID is nil for unassigned tickets and
// ClosedAt is set exactly once, when the ticket reaches a terminal status.
type Ticket struct {
	ID             string     `json:"id" db:"id"`
	Key            string     `json:"ticket_key" db:"key"`
	Title          string     `json:"title" db:"title"`
	AssigneeID     *int64     `json:"assignee,omitempty" db:"assignee_id"`
	Status         string     `json:"status" db:"status"`
	StoryPoints    int        `json:"story_points" db:"story_points"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	TimeSpentHours float64    `json:"time_spent_hours" db:"time_spent_hours"`
}

// Message is a communication event. RecipientID is nil for channel/broadcast
// messages.
type Message struct {
	ID              string    `json:"id" db:"id"`
	SenderID        int64     `json:"sender" db:"sender_id"`
	RecipientID     *int64    `json:"recipient,omitempty" db:"recipient_id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	Length          int       `json:"message_length" db:"length"`
	SentimentScore  float64   `json:"sentiment_score" db:"sentiment_score"`
	IsQuickResponse bool      `json:"is_quick_response" db:"is_quick_response"`
}

// NewCommit creates a commit record with a generated ID.
func NewCommit(developerID int64, hash, message string, added, removed int, ts time.Time, isMerge bool) *Commit {
	return &Commit{
		ID:           uuid.New().String(),
		DeveloperID:  developerID,
		Hash:         hash,
		Message:      message,
		LinesAdded:   added,
		LinesRemoved: removed,
		Timestamp:    ts,
		IsMerge:      isMerge,
	}
}

// NewTicket creates a ticket record with a generated ID.
func NewTicket(key, title string, assigneeID *int64, status string, points int, createdAt time.Time) *Ticket {
	return &Ticket{
		ID:          uuid.New().String(),
		Key:         key,
		Title:       title,
		AssigneeID:  assigneeID,
		Status:      status,
		StoryPoints: points,
		CreatedAt:   createdAt,
	}
}

// NewMessage creates a message record with a generated ID.
func NewMessage(senderID int64, recipientID *int64, ts time.Time, length int, sentiment float64, quick bool) *Message {
	return &Message{
		ID:              uuid.New().String(),
		SenderID:        senderID,
		RecipientID:     recipientID,
		Timestamp:       ts,
		Length:          length,
		SentimentScore:  sentiment,
		IsQuickResponse: quick,
	}
}
