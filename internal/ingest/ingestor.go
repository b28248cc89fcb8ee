package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/teampulse/teampulse-backend/internal/store"
)

// ticketKeyPattern matches tracker keys like PROJ-123 in commit messages.
var ticketKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)

// CommitSource lists repository commits; *GitHubClient satisfies it.
type CommitSource interface {
	ListCommits(ctx context.Context, owner, repo string, since time.Time) ([]GitHubCommit, error)
	GetCommitDetail(ctx context.Context, owner, repo, sha string) (*GitHubCommitDetail, error)
}

// ActivityWriter is the write surface the ingestor needs from the store.
type ActivityWriter interface {
	GetDeveloperByEmail(ctx context.Context, email string) (*store.Developer, error)
	CreateDeveloper(ctx context.Context, name, email string) (*store.Developer, error)
	InsertCommit(ctx context.Context, c *store.Commit) error
}

// Result summarizes one ingestion run.
type Result struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Ingestor pulls commit activity from a source and writes it to the store.
// Developers are keyed by author email; re-running over the same window is
// idempotent because commit hashes are unique.
type Ingestor struct {
	source CommitSource
	writer ActivityWriter
	logger *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(source CommitSource, writer ActivityWriter) *Ingestor {
	return &Ingestor{
		source: source,
		writer: writer,
		logger: slog.Default(),
	}
}

// Run ingests commits for one repository since the given time.
func (in *Ingestor) Run(ctx context.Context, owner, repo string, since time.Time) (*Result, error) {
	commits, err := in.source.ListCommits(ctx, owner, repo, since)
	if err != nil {
		return nil, err
	}

	result := &Result{Fetched: len(commits)}
	developers := make(map[string]*store.Developer)

	for _, gc := range commits {
		email := gc.Commit.Author.Email
		if email == "" {
			result.Skipped++
			continue
		}

		dev, err := in.resolveDeveloper(ctx, developers, gc.Commit.Author.Name, email)
		if err != nil {
			return nil, err
		}

		detail, err := in.source.GetCommitDetail(ctx, owner, repo, gc.SHA)
		if err != nil {
			// Stats are best-effort; a commit without line counts still
			// contributes to work-pattern features.
			in.logger.Warn("failed to fetch commit stats", "sha", gc.SHA, "error", err)
			detail = &GitHubCommitDetail{SHA: gc.SHA}
		}

		commit := store.NewCommit(
			dev.ID,
			gc.SHA,
			gc.Commit.Message,
			detail.Stats.Additions,
			detail.Stats.Deletions,
			gc.Commit.Author.Date,
			isMergeCommit(gc),
		)
		if key := ticketKeyPattern.FindString(gc.Commit.Message); key != "" {
			commit.TicketKey = &key
		}

		if err := in.writer.InsertCommit(ctx, commit); err != nil {
			return nil, fmt.Errorf("failed to insert commit %s: %w", gc.SHA, err)
		}
		result.Inserted++
	}

	in.logger.Info("ingestion run finished",
		"repo", owner+"/"+repo,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"skipped", result.Skipped)

	return result, nil
}

func (in *Ingestor) resolveDeveloper(ctx context.Context, cache map[string]*store.Developer, name, email string) (*store.Developer, error) {
	if dev, ok := cache[email]; ok {
		return dev, nil
	}

	dev, err := in.writer.GetDeveloperByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		if name == "" {
			name = email
		}
		dev, err = in.writer.CreateDeveloper(ctx, name, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve developer %s: %w", email, err)
	}

	cache[email] = dev
	return dev, nil
}

func isMergeCommit(gc GitHubCommit) bool {
	return len(gc.Parents) > 1 || strings.HasPrefix(gc.Commit.Message, "Merge ")
}
