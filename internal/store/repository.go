package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository handles activity store reads and writes. The scoring pipeline
// only reads; writes come from seeding and ingestion.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetDeveloper returns the developer with the given id.
func (r *Repository) GetDeveloper(ctx context.Context, id int64) (*Developer, error) {
	var dev Developer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at FROM developers WHERE id = ?
	`, id).Scan(&dev.ID, &dev.Name, &dev.Email, &dev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("developer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query developer: %w", err)
	}
	return &dev, nil
}

// GetDeveloperByEmail returns the developer with the given email.
func (r *Repository) GetDeveloperByEmail(ctx context.Context, email string) (*Developer, error) {
	var dev Developer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at FROM developers WHERE email = ?
	`, email).Scan(&dev.ID, &dev.Name, &dev.Email, &dev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("developer %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query developer: %w", err)
	}
	return &dev, nil
}

// CreateDeveloper inserts a developer and returns it with its assigned id.
func (r *Repository) CreateDeveloper(ctx context.Context, name, email string) (*Developer, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO developers (name, email, created_at) VALUES (?, ?, ?)
	`, name, email, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create developer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read developer id: %w", err)
	}
	return &Developer{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}

// ListDevelopers returns all developers ordered by name.
func (r *Repository) ListDevelopers(ctx context.Context) ([]Developer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, created_at FROM developers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list developers: %w", err)
	}
	defer rows.Close()

	var devs []Developer
	for rows.Next() {
		var dev Developer
		if err := rows.Scan(&dev.ID, &dev.Name, &dev.Email, &dev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan developer: %w", err)
		}
		devs = append(devs, dev)
	}
	return devs, rows.Err()
}

// CommitsSince returns a developer's commits at or after the given time.
func (r *Repository) CommitsSince(ctx context.Context, developerID int64, since time.Time) ([]Commit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, developer_id, hash, message, lines_added, lines_removed, timestamp, is_merge, ticket_key
		FROM commits
		WHERE developer_id = ? AND timestamp >= ?
		ORDER BY timestamp
	`, developerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

// ListCommits returns recent commits, optionally filtered by developer.
func (r *Repository) ListCommits(ctx context.Context, developerID int64, limit int) ([]Commit, error) {
	query := `
		SELECT id, developer_id, hash, message, lines_added, lines_removed, timestamp, is_merge, ticket_key
		FROM commits`
	args := []interface{}{}
	if developerID > 0 {
		query += ` WHERE developer_id = ?`
		args = append(args, developerID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

func scanCommits(rows *sql.Rows) ([]Commit, error) {
	var commits []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.ID, &c.DeveloperID, &c.Hash, &c.Message,
			&c.LinesAdded, &c.LinesRemoved, &c.Timestamp, &c.IsMerge, &c.TicketKey); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// InsertCommit stores a commit. Re-inserting an already observed hash is a
// no-op so ingestion stays idempotent.
func (r *Repository) InsertCommit(ctx context.Context, c *Commit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO commits (id, developer_id, hash, message, lines_added, lines_removed, timestamp, is_merge, ticket_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, c.ID, c.DeveloperID, c.Hash, c.Message, c.LinesAdded, c.LinesRemoved, c.Timestamp, c.IsMerge, c.TicketKey)
	if err != nil {
		return fmt.Errorf("failed to insert commit: %w", err)
	}
	return nil
}

// CommitLineTotals sums lines added and removed over a developer's commits in
// the window.
func (r *Repository) CommitLineTotals(ctx context.Context, developerID int64, since time.Time) (added, removed int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(lines_added), 0), COALESCE(SUM(lines_removed), 0)
		FROM commits
		WHERE developer_id = ? AND timestamp >= ?
	`, developerID, since).Scan(&added, &removed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum commit lines: %w", err)
	}
	return added, removed, nil
}

// CountOpenTickets counts a developer's assigned tickets that have not
// reached a terminal status. Not window-bounded: open load is evaluated at
// call time.
func (r *Repository) CountOpenTickets(ctx context.Context, developerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE assignee_id = ? AND status NOT IN (?, ?)
	`, developerID, TerminalStatuses[0], TerminalStatuses[1]).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open tickets: %w", err)
	}
	return count, nil
}

// ClosedTicketAvgTime returns the mean time_spent_hours over the developer's
// tickets closed within the window, or 0 when none closed.
func (r *Repository) ClosedTicketAvgTime(ctx context.Context, developerID int64, since time.Time) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(time_spent_hours), 0) FROM tickets
		WHERE assignee_id = ? AND status IN (?, ?) AND closed_at >= ?
	`, developerID, TerminalStatuses[0], TerminalStatuses[1], since).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average ticket time: %w", err)
	}
	return avg, nil
}

// CountHighValueClosed counts tickets closed within the window with story
// points strictly above minPoints.
func (r *Repository) CountHighValueClosed(ctx context.Context, developerID int64, since time.Time, minPoints int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE assignee_id = ? AND status IN (?, ?) AND closed_at >= ? AND story_points > ?
	`, developerID, TerminalStatuses[0], TerminalStatuses[1], since, minPoints).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count high value tickets: %w", err)
	}
	return count, nil
}

// InsertTicket stores a ticket.
func (r *Repository) InsertTicket(ctx context.Context, t *Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tickets (id, key, title, assignee_id, status, story_points, created_at, closed_at, time_spent_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Key, t.Title, t.AssigneeID, t.Status, t.StoryPoints, t.CreatedAt, t.ClosedAt, t.TimeSpentHours)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// ListTickets returns recent tickets ordered by creation time.
func (r *Repository) ListTickets(ctx context.Context, limit int) ([]Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, key, title, assignee_id, status, story_points, created_at, closed_at, time_spent_hours
		FROM tickets ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Key, &t.Title, &t.AssigneeID, &t.Status,
			&t.StoryPoints, &t.CreatedAt, &t.ClosedAt, &t.TimeSpentHours); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// AvgSentiment returns the mean sentiment over messages the developer sent in
// the window, or 0 when none sent.
func (r *Repository) AvgSentiment(ctx context.Context, developerID int64, since time.Time) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(sentiment_score), 0) FROM messages
		WHERE sender_id = ? AND timestamp >= ?
	`, developerID, since).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average sentiment: %w", err)
	}
	return avg, nil
}

// ReceivedMessageCounts returns total and quick-response counts over messages
// the developer received in the window.
func (r *Repository) ReceivedMessageCounts(ctx context.Context, developerID int64, since time.Time) (total, quick int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_quick_response), 0) FROM messages
		WHERE recipient_id = ? AND timestamp >= ?
	`, developerID, since).Scan(&total, &quick)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count received messages: %w", err)
	}
	return total, quick, nil
}

// InsertMessage stores a message.
func (r *Repository) InsertMessage(ctx context.Context, m *Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, timestamp, length, sentiment_score, is_quick_response)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.SenderID, m.RecipientID, m.Timestamp, m.Length, m.SentimentScore, m.IsQuickResponse)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages returns recent messages ordered by timestamp.
func (r *Repository) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, timestamp, length, sentiment_score, is_quick_response
		FROM messages ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Timestamp,
			&m.Length, &m.SentimentScore, &m.IsQuickResponse); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
