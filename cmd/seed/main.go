// Command seed populates a fresh database with demo activity and installs
// the baseline model artifacts, so the API serves scores out of the box.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/teampulse/teampulse-backend/internal/config"
	"github.com/teampulse/teampulse-backend/internal/model"
	"github.com/teampulse/teampulse-backend/internal/store"
)

type seedProfile struct {
	name  string
	email string

	// Behavior knobs that shape the generated activity.
	commitsPerDay   float64
	afterHoursBias  float64 // 0..1 share of commits landing outside work hours
	weekendBias     float64 // 0..1 share landing on weekends
	avgLinesChanged int
	openTickets     int
	sentiment       float64
	quickResponder  float64 // 0..1 share of received messages answered quickly
}

var profiles = []seedProfile{
	{"Alice Johnson", "alice@teampulse.com", 3.0, 0.1, 0.05, 120, 2, 0.6, 0.8},
	{"Bob Smith", "bob@teampulse.com", 1.5, 0.7, 0.5, 80, 9, -0.2, 0.3},
	{"Carol Davis", "carol@teampulse.com", 4.5, 0.2, 0.1, 300, 3, 0.4, 0.7},
	{"Dan Wright", "dan@teampulse.com", 0.8, 0.4, 0.3, 40, 5, 0.1, 0.5},
	{"Erin Patel", "erin@teampulse.com", 2.2, 0.05, 0.0, 150, 1, 0.8, 0.9},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeding complete", "data_dir", cfg.DataDir, "model_dir", cfg.ModelDir)
}

func run(cfg *config.Config) error {
	registry := model.NewFileRegistry(cfg.ModelDir)
	for name, artifact := range model.DefaultArtifacts() {
		if err := registry.Save(name, artifact); err != nil {
			return fmt.Errorf("failed to install %s artifact: %w", name, err)
		}
	}

	db, err := store.NewDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := store.NewRepository(db)
	ctx := context.Background()

	// Fixed seed keeps reruns deterministic.
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for _, p := range profiles {
		dev, err := repo.CreateDeveloper(ctx, p.name, p.email)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.email, err)
		}

		if err := seedCommits(ctx, repo, rng, dev.ID, p, now, cfg.Analysis.WindowDays); err != nil {
			return err
		}
		if err := seedTickets(ctx, repo, rng, dev.ID, p, now); err != nil {
			return err
		}
	}

	return seedMessages(ctx, repo, rng, now)
}

func seedCommits(ctx context.Context, repo *store.Repository, rng *rand.Rand, devID int64, p seedProfile, now time.Time, windowDays int) error {
	for day := 0; day < windowDays; day++ {
		count := int(p.commitsPerDay + rng.Float64())
		for i := 0; i < count; i++ {
			ts := commitTime(rng, now, day, p)

			added := p.avgLinesChanged/2 + rng.Intn(p.avgLinesChanged+1)
			removed := rng.Intn(p.avgLinesChanged/2 + 1)
			hash := fmt.Sprintf("%016x%016x", rng.Uint64(), rng.Uint64())
			message := fmt.Sprintf("PROJ-%d update service layer", rng.Intn(200)+1)

			commit := store.NewCommit(devID, hash, message, added, removed, ts, rng.Float64() < 0.1)
			if err := repo.InsertCommit(ctx, commit); err != nil {
				return fmt.Errorf("failed to insert commit: %w", err)
			}
		}
	}
	return nil
}

// commitTime places a commit on the given day, honoring the profile's
// after-hours and weekend biases.
func commitTime(rng *rand.Rand, now time.Time, daysAgo int, p seedProfile) time.Time {
	day := now.AddDate(0, 0, -daysAgo)

	// Shift off weekends unless the profile works them.
	if wd := day.Weekday(); (wd == time.Saturday || wd == time.Sunday) && rng.Float64() > p.weekendBias {
		day = day.AddDate(0, 0, -2)
	}

	hour := 9 + rng.Intn(9)
	if rng.Float64() < p.afterHoursBias {
		hour = 20 + rng.Intn(4)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, rng.Intn(60), 0, 0, time.UTC)
}

func seedTickets(ctx context.Context, repo *store.Repository, rng *rand.Rand, devID int64, p seedProfile, now time.Time) error {
	for i := 0; i < p.openTickets; i++ {
		t := store.NewTicket(
			fmt.Sprintf("PROJ-%d", rng.Intn(1000)+1000),
			fmt.Sprintf("Open work item %d", i+1),
			&devID,
			"In Progress",
			rng.Intn(8)+1,
			now.AddDate(0, 0, -rng.Intn(20)),
		)
		if err := repo.InsertTicket(ctx, t); err != nil {
			return fmt.Errorf("failed to insert ticket: %w", err)
		}
	}

	// A few closed tickets inside the window, some of them high value.
	for i := 0; i < 4; i++ {
		created := now.AddDate(0, 0, -rng.Intn(25)-3)
		closed := created.AddDate(0, 0, rng.Intn(3)+1)
		t := store.NewTicket(
			fmt.Sprintf("PROJ-%d", rng.Intn(1000)+2000),
			fmt.Sprintf("Closed work item %d", i+1),
			&devID,
			"Done",
			rng.Intn(10)+1,
			created,
		)
		t.ClosedAt = &closed
		t.TimeSpentHours = float64(rng.Intn(30) + 2)
		if err := repo.InsertTicket(ctx, t); err != nil {
			return fmt.Errorf("failed to insert ticket: %w", err)
		}
	}
	return nil
}

func seedMessages(ctx context.Context, repo *store.Repository, rng *rand.Rand, now time.Time) error {
	devs, err := repo.ListDevelopers(ctx)
	if err != nil {
		return err
	}

	for si, sender := range devs {
		p := profiles[si%len(profiles)]
		for i := 0; i < 40; i++ {
			var recipient *int64
			if rng.Float64() < 0.8 {
				other := devs[rng.Intn(len(devs))]
				if other.ID != sender.ID {
					recipient = &other.ID
				}
			}

			sentiment := p.sentiment + (rng.Float64()-0.5)*0.4
			if sentiment > 1 {
				sentiment = 1
			}
			if sentiment < -1 {
				sentiment = -1
			}

			m := store.NewMessage(
				sender.ID,
				recipient,
				now.AddDate(0, 0, -rng.Intn(28)).Add(-time.Duration(rng.Intn(12))*time.Hour),
				rng.Intn(300)+10,
				sentiment,
				rng.Float64() < p.quickResponder,
			)
			if err := repo.InsertMessage(ctx, m); err != nil {
				return fmt.Errorf("failed to insert message: %w", err)
			}
		}
	}
	return nil
}
