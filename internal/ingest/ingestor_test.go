package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teampulse/teampulse-backend/internal/store"
)

func newTestRepo(t *testing.T) *store.Repository {
	t.Helper()
	db, err := store.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewRepository(db)
}

// newGitHubStub serves a commit listing and per-commit details the way the
// GitHub REST API shapes them.
func newGitHubStub(t *testing.T) *httptest.Server {
	t.Helper()

	listing := []map[string]interface{}{
		{
			"sha": "aaa111",
			"commit": map[string]interface{}{
				"message": "PROJ-42 fix flaky session refresh",
				"author": map[string]interface{}{
					"name":  "Alice Johnson",
					"email": "alice@teampulse.com",
					"date":  "2024-06-10T22:30:00Z",
				},
			},
			"parents": []map[string]string{{"sha": "p1"}},
		},
		{
			"sha": "bbb222",
			"commit": map[string]interface{}{
				"message": "Merge pull request #17 from feature/session",
				"author": map[string]interface{}{
					"name":  "Alice Johnson",
					"email": "alice@teampulse.com",
					"date":  "2024-06-11T10:00:00Z",
				},
			},
			"parents": []map[string]string{{"sha": "p1"}, {"sha": "p2"}},
		},
		{
			"sha": "ccc333",
			"commit": map[string]interface{}{
				"message": "update docs",
				"author": map[string]interface{}{
					"name":  "Bob Smith",
					"email": "bob@teampulse.com",
					"date":  "2024-06-12T11:00:00Z",
				},
			},
			"parents": []map[string]string{{"sha": "p3"}},
		},
	}

	details := map[string]map[string]interface{}{
		"aaa111": {"sha": "aaa111", "stats": map[string]int{"additions": 120, "deletions": 30}},
		"bbb222": {"sha": "bbb222", "stats": map[string]int{"additions": 0, "deletions": 0}},
		"ccc333": {"sha": "ccc333", "stats": map[string]int{"additions": 12, "deletions": 2}},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/teampulse/backend/commits":
			assert.NotEmpty(t, r.URL.Query().Get("since"))
			_ = json.NewEncoder(w).Encode(listing)
		case strings.HasPrefix(r.URL.Path, "/repos/teampulse/backend/commits/"):
			sha := strings.TrimPrefix(r.URL.Path, "/repos/teampulse/backend/commits/")
			detail, ok := details[sha]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(detail)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestIngestorRun(t *testing.T) {
	server := newGitHubStub(t)
	defer server.Close()

	repo := newTestRepo(t)
	client := NewGitHubClient("").WithBaseURL(server.URL)
	ingestor := NewIngestor(client, repo)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := ingestor.Run(context.Background(), "teampulse", "backend", since)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 0, result.Skipped)

	ctx := context.Background()

	alice, err := repo.GetDeveloperByEmail(ctx, "alice@teampulse.com")
	require.NoError(t, err)
	bob, err := repo.GetDeveloperByEmail(ctx, "bob@teampulse.com")
	require.NoError(t, err)

	aliceCommits, err := repo.CommitsSince(ctx, alice.ID, since)
	require.NoError(t, err)
	require.Len(t, aliceCommits, 2)

	bobCommits, err := repo.CommitsSince(ctx, bob.ID, since)
	require.NoError(t, err)
	require.Len(t, bobCommits, 1)
	assert.Equal(t, 12, bobCommits[0].LinesAdded)

	var fix store.Commit
	for _, c := range aliceCommits {
		if c.Hash == "aaa111" {
			fix = c
		}
	}
	require.NotNil(t, fix.TicketKey)
	assert.Equal(t, "PROJ-42", *fix.TicketKey)
	assert.False(t, fix.IsMerge)
	assert.Equal(t, 120, fix.LinesAdded)
	assert.Equal(t, 30, fix.LinesRemoved)
}

func TestIngestorMergeDetection(t *testing.T) {
	server := newGitHubStub(t)
	defer server.Close()

	repo := newTestRepo(t)
	client := NewGitHubClient("").WithBaseURL(server.URL)
	ingestor := NewIngestor(client, repo)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := ingestor.Run(context.Background(), "teampulse", "backend", since)
	require.NoError(t, err)

	ctx := context.Background()
	alice, err := repo.GetDeveloperByEmail(ctx, "alice@teampulse.com")
	require.NoError(t, err)

	commits, err := repo.CommitsSince(ctx, alice.ID, since)
	require.NoError(t, err)

	merges := 0
	for _, c := range commits {
		if c.IsMerge {
			merges++
			assert.Equal(t, "bbb222", c.Hash)
		}
	}
	assert.Equal(t, 1, merges)
}

func TestIngestorRerunIsIdempotent(t *testing.T) {
	server := newGitHubStub(t)
	defer server.Close()

	repo := newTestRepo(t)
	client := NewGitHubClient("").WithBaseURL(server.URL)
	ingestor := NewIngestor(client, repo)

	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_, err := ingestor.Run(ctx, "teampulse", "backend", since)
	require.NoError(t, err)
	_, err = ingestor.Run(ctx, "teampulse", "backend", since)
	require.NoError(t, err)

	alice, err := repo.GetDeveloperByEmail(ctx, "alice@teampulse.com")
	require.NoError(t, err)

	commits, err := repo.CommitsSince(ctx, alice.ID, since)
	require.NoError(t, err)
	assert.Len(t, commits, 2, "re-ingesting the same window must not duplicate commits")
}

func TestIngestorUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	repo := newTestRepo(t)
	client := NewGitHubClient("").WithBaseURL(server.URL)
	ingestor := NewIngestor(client, repo)

	_, err := ingestor.Run(context.Background(), "teampulse", "backend", time.Now().Add(-time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprint(http.StatusForbidden))
}
