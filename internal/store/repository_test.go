package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestDeveloperRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dev, err := repo.CreateDeveloper(ctx, "Alice Johnson", "alice.johnson@teampulse.com")
	require.NoError(t, err)
	assert.NotZero(t, dev.ID)

	got, err := repo.GetDeveloper(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Johnson", got.Name)
	assert.Equal(t, "alice.johnson@teampulse.com", got.Email)

	byEmail, err := repo.GetDeveloperByEmail(ctx, "alice.johnson@teampulse.com")
	require.NoError(t, err)
	assert.Equal(t, dev.ID, byEmail.ID)
}

func TestGetDeveloperNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetDeveloper(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetDeveloperByEmail(context.Background(), "nobody@teampulse.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitWindowQueries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dev, err := repo.CreateDeveloper(ctx, "Bob Smith", "bob.smith@teampulse.com")
	require.NoError(t, err)

	now := time.Now().UTC()
	inside := NewCommit(dev.ID, "aaa111", "fix parser", 100, 40, now.Add(-24*time.Hour), false)
	older := NewCommit(dev.ID, "bbb222", "old work", 10, 5, now.Add(-45*24*time.Hour), false)
	require.NoError(t, repo.InsertCommit(ctx, inside))
	require.NoError(t, repo.InsertCommit(ctx, older))

	since := now.Add(-30 * 24 * time.Hour)
	commits, err := repo.CommitsSince(ctx, dev.ID, since)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "aaa111", commits[0].Hash)

	added, removed, err := repo.CommitLineTotals(ctx, dev.ID, since)
	require.NoError(t, err)
	assert.Equal(t, int64(100), added)
	assert.Equal(t, int64(40), removed)
}

func TestInsertCommitIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dev, err := repo.CreateDeveloper(ctx, "Eve Davis", "eve.davis@teampulse.com")
	require.NoError(t, err)

	c := NewCommit(dev.ID, "ccc333", "initial", 5, 1, time.Now().UTC(), false)
	require.NoError(t, repo.InsertCommit(ctx, c))

	dup := NewCommit(dev.ID, "ccc333", "initial again", 5, 1, time.Now().UTC(), false)
	require.NoError(t, repo.InsertCommit(ctx, dup))

	commits, err := repo.ListCommits(ctx, dev.ID, 10)
	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestTicketAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dev, err := repo.CreateDeveloper(ctx, "Charlie Brown", "charlie.brown@teampulse.com")
	require.NoError(t, err)

	now := time.Now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	open := NewTicket("PROD-100", "open work", &dev.ID, "In Progress", 3, now.Add(-5*24*time.Hour))
	require.NoError(t, repo.InsertTicket(ctx, open))

	closedAt := now.Add(-2 * 24 * time.Hour)
	done := NewTicket("PROD-101", "big feature", &dev.ID, "Done", 8, now.Add(-10*24*time.Hour))
	done.ClosedAt = &closedAt
	done.TimeSpentHours = 12
	require.NoError(t, repo.InsertTicket(ctx, done))

	small := NewTicket("PROD-102", "small fix", &dev.ID, "Closed", 2, now.Add(-9*24*time.Hour))
	small.ClosedAt = &closedAt
	small.TimeSpentHours = 4
	require.NoError(t, repo.InsertTicket(ctx, small))

	openCount, err := repo.CountOpenTickets(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, openCount)

	avg, err := repo.ClosedTicketAvgTime(ctx, dev.ID, since)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, avg, 1e-9)

	highValue, err := repo.CountHighValueClosed(ctx, dev.ID, since, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, highValue)
}

func TestTicketAggregatesEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dev, err := repo.CreateDeveloper(ctx, "Dave Lee", "dave.lee@teampulse.com")
	require.NoError(t, err)

	avg, err := repo.ClosedTicketAvgTime(ctx, dev.ID, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)

	count, err := repo.CountOpenTickets(ctx, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMessageAggregates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sender, err := repo.CreateDeveloper(ctx, "Alice Johnson", "alice@teampulse.com")
	require.NoError(t, err)
	recipient, err := repo.CreateDeveloper(ctx, "Bob Smith", "bob@teampulse.com")
	require.NoError(t, err)

	now := time.Now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	require.NoError(t, repo.InsertMessage(ctx, NewMessage(sender.ID, &recipient.ID, now.Add(-time.Hour), 40, 0.8, true)))
	require.NoError(t, repo.InsertMessage(ctx, NewMessage(sender.ID, &recipient.ID, now.Add(-2*time.Hour), 20, 0.2, false)))
	// Broadcast message has no recipient and must not count as received.
	require.NoError(t, repo.InsertMessage(ctx, NewMessage(sender.ID, nil, now.Add(-3*time.Hour), 15, 0.5, false)))

	avg, err := repo.AvgSentiment(ctx, sender.ID, since)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, avg, 1e-9)

	total, quick, err := repo.ReceivedMessageCounts(ctx, recipient.ID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, quick)

	// The sender received nothing.
	total, quick, err = repo.ReceivedMessageCounts(ctx, sender.ID, since)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, quick)
}
