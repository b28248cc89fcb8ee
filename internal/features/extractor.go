package features

import (
	"context"
	"time"

	"github.com/teampulse/teampulse-backend/internal/store"
)

// ActivityStore is the read surface the extractor needs. *store.Repository
// satisfies it; tests substitute in-memory fakes.
type ActivityStore interface {
	GetDeveloper(ctx context.Context, id int64) (*store.Developer, error)
	CommitsSince(ctx context.Context, developerID int64, since time.Time) ([]store.Commit, error)
	CommitLineTotals(ctx context.Context, developerID int64, since time.Time) (added, removed int64, err error)
	CountOpenTickets(ctx context.Context, developerID int64) (int, error)
	ClosedTicketAvgTime(ctx context.Context, developerID int64, since time.Time) (float64, error)
	CountHighValueClosed(ctx context.Context, developerID int64, since time.Time, minPoints int) (int, error)
	AvgSentiment(ctx context.Context, developerID int64, since time.Time) (float64, error)
	ReceivedMessageCounts(ctx context.Context, developerID int64, since time.Time) (total, quick int, err error)
}

// Config controls the analysis window and work-pattern boundaries.
type Config struct {
	// WindowDays is the trailing window length, counted back from now.
	WindowDays int

	// WorkStartHour/WorkEndHour bound the working-hours interval
	// [start, end); commits outside it count as after-hours.
	WorkStartHour int
	WorkEndHour   int

	// WeekendDays is the set of weekend weekdays.
	WeekendDays map[time.Weekday]bool

	// Location is the timezone commit hours and weekdays are evaluated in.
	Location *time.Location

	// HighValuePoints is the story-point floor (exclusive) for a closed
	// ticket to count as high value.
	HighValuePoints int
}

// DefaultConfig returns the standard 30-day window with 09:00-18:00 work
// hours and a Saturday/Sunday weekend, evaluated in UTC.
func DefaultConfig() Config {
	return Config{
		WindowDays:      30,
		WorkStartHour:   9,
		WorkEndHour:     18,
		WeekendDays:     map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		Location:        time.UTC,
		HighValuePoints: 5,
	}
}

// Extractor computes per-developer feature vectors from the activity store.
// It is pure with respect to the store snapshot at call time: no caching
// across calls, no shared per-developer state.
type Extractor struct {
	store ActivityStore
	cfg   Config
	now   func() time.Time
}

// NewExtractor creates an extractor over the given store.
func NewExtractor(s ActivityStore, cfg Config) *Extractor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Extractor{store: s, cfg: cfg, now: time.Now}
}

// WithClock substitutes the time source, for tests.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

func (e *Extractor) windowStart() time.Time {
	return e.now().Add(-time.Duration(e.cfg.WindowDays) * 24 * time.Hour)
}

// WorkPattern computes the burnout-input features: after-hours and weekend
// commit ratios over the window, current open ticket load, and mean time
// spent on tickets closed in the window.
func (e *Extractor) WorkPattern(ctx context.Context, developerID int64) (*Vector, error) {
	if _, err := e.store.GetDeveloper(ctx, developerID); err != nil {
		return nil, err
	}

	since := e.windowStart()
	commits, err := e.store.CommitsSince(ctx, developerID, since)
	if err != nil {
		return nil, err
	}

	afterHours := 0
	weekend := 0
	for _, c := range commits {
		local := c.Timestamp.In(e.cfg.Location)
		if local.Hour() < e.cfg.WorkStartHour || local.Hour() >= e.cfg.WorkEndHour {
			afterHours++
		}
		if e.cfg.WeekendDays[local.Weekday()] {
			weekend++
		}
	}

	open, err := e.store.CountOpenTickets(ctx, developerID)
	if err != nil {
		return nil, err
	}

	avgTime, err := e.store.ClosedTicketAvgTime(ctx, developerID, since)
	if err != nil {
		return nil, err
	}

	v := NewVector(WorkPatternSchema)
	v.Set(AfterHoursRatio, ratio(afterHours, len(commits)))
	v.Set(WeekendRatio, ratio(weekend, len(commits)))
	v.Set(OpenTickets, float64(open))
	v.Set(AvgTimeSpent, avgTime)
	return v, nil
}

// Workload computes the productivity-input features: total lines changed
// over the window and high-value tickets closed in it.
func (e *Extractor) Workload(ctx context.Context, developerID int64) (*Vector, error) {
	if _, err := e.store.GetDeveloper(ctx, developerID); err != nil {
		return nil, err
	}

	since := e.windowStart()
	added, removed, err := e.store.CommitLineTotals(ctx, developerID, since)
	if err != nil {
		return nil, err
	}

	highValue, err := e.store.CountHighValueClosed(ctx, developerID, since, e.cfg.HighValuePoints)
	if err != nil {
		return nil, err
	}

	v := NewVector(WorkloadSchema)
	v.Set(TotalLinesChanged, float64(added+removed))
	v.Set(HighValueTicketsClosed, float64(highValue))
	return v, nil
}

// Communication computes the collaboration-input features: mean sentiment of
// sent messages and the quick-response ratio of received ones.
func (e *Extractor) Communication(ctx context.Context, developerID int64) (*Vector, error) {
	if _, err := e.store.GetDeveloper(ctx, developerID); err != nil {
		return nil, err
	}

	since := e.windowStart()
	sentiment, err := e.store.AvgSentiment(ctx, developerID, since)
	if err != nil {
		return nil, err
	}

	total, quick, err := e.store.ReceivedMessageCounts(ctx, developerID, since)
	if err != nil {
		return nil, err
	}

	v := NewVector(CommunicationSchema)
	v.Set(AvgSentiment, sentiment)
	v.Set(ResponseRatio, ratio(quick, total))
	return v, nil
}
