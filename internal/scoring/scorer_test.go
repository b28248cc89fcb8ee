package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teampulse/teampulse-backend/internal/features"
	"github.com/teampulse/teampulse-backend/internal/model"
	"github.com/teampulse/teampulse-backend/internal/store"
)

// Monday 2024-06-17 12:00 UTC.
var testNow = time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	commits      []store.Commit
	openTickets  int
	avgTime      float64
	linesAdded   int64
	linesRemoved int64
	highValue    int
	sentiment    float64
	msgTotal     int
	msgQuick     int
	unknownDev   bool
}

func (f *fakeStore) GetDeveloper(_ context.Context, id int64) (*store.Developer, error) {
	if f.unknownDev {
		return nil, store.ErrNotFound
	}
	return &store.Developer{ID: id, Name: "dev", Email: "dev@example.com"}, nil
}

func (f *fakeStore) CommitsSince(_ context.Context, _ int64, since time.Time) ([]store.Commit, error) {
	var out []store.Commit
	for _, c := range f.commits {
		if !c.Timestamp.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) CommitLineTotals(_ context.Context, _ int64, _ time.Time) (int64, int64, error) {
	return f.linesAdded, f.linesRemoved, nil
}

func (f *fakeStore) CountOpenTickets(_ context.Context, _ int64) (int, error) {
	return f.openTickets, nil
}

func (f *fakeStore) ClosedTicketAvgTime(_ context.Context, _ int64, _ time.Time) (float64, error) {
	return f.avgTime, nil
}

func (f *fakeStore) CountHighValueClosed(_ context.Context, _ int64, _ time.Time, _ int) (int, error) {
	return f.highValue, nil
}

func (f *fakeStore) AvgSentiment(_ context.Context, _ int64, _ time.Time) (float64, error) {
	return f.sentiment, nil
}

func (f *fakeStore) ReceivedMessageCounts(_ context.Context, _ int64, _ time.Time) (int, int, error) {
	return f.msgTotal, f.msgQuick, nil
}

// stubModel returns a fixed prediction regardless of input.
type stubModel struct {
	schema []string
	out    float64
}

func (s *stubModel) Schema() []string                     { return s.schema }
func (s *stubModel) Predict(_ []float64) (float64, error) { return s.out, nil }

type mapRegistry struct {
	models map[string]model.Model
}

func (r *mapRegistry) Load(name string) (model.Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, model.ErrModelNotFound
	}
	return m, nil
}

func defaultRegistry(t *testing.T) model.Registry {
	t.Helper()
	models := make(map[string]model.Model)
	for name, artifact := range model.DefaultArtifacts() {
		m, err := artifact.Build()
		require.NoError(t, err)
		models[name] = m
	}
	return &mapRegistry{models: models}
}

func newService(fs *fakeStore, reg model.Registry) *Service {
	extractor := features.NewExtractor(fs, features.DefaultConfig()).
		WithClock(func() time.Time { return testNow })
	return NewService(extractor, reg)
}

func commitAt(ts time.Time) store.Commit {
	return store.Commit{ID: "c", DeveloperID: 1, Hash: "h", Timestamp: ts}
}

func TestBurnoutRiskRisesWithAfterHoursWork(t *testing.T) {
	workday := time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC) // Tuesday morning
	lateNight := workday.Add(12 * time.Hour)

	calm := &fakeStore{commits: []store.Commit{
		commitAt(workday), commitAt(workday), commitAt(workday), commitAt(workday),
	}}
	strained := &fakeStore{commits: []store.Commit{
		commitAt(workday), commitAt(lateNight), commitAt(lateNight), commitAt(lateNight),
	}}

	reg := defaultRegistry(t)
	calmRes, err := newService(calm, reg).Burnout(context.Background(), 1)
	require.NoError(t, err)
	strainedRes, err := newService(strained, reg).Burnout(context.Background(), 1)
	require.NoError(t, err)

	assert.Greater(t, strainedRes.RiskScore, calmRes.RiskScore)
	assert.GreaterOrEqual(t, calmRes.RiskScore, 0.0)
	assert.LessOrEqual(t, strainedRes.RiskScore, 100.0)
	assert.Contains(t, strainedRes.Features, "after_hours_ratio")
}

func TestBurnoutHighLabelMatchesScore(t *testing.T) {
	fs := &fakeStore{
		commits: []store.Commit{
			commitAt(testNow.Add(-2 * time.Hour)), // Monday noon-ish, but set hours below
		},
		openTickets: 20,
		avgTime:     40,
	}
	// All commits after hours.
	fs.commits[0].Timestamp = testNow.Add(-12 * time.Hour) // midnight

	res, err := newService(fs, defaultRegistry(t)).Burnout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "High", res.RiskLevel)
	assert.Greater(t, res.RiskScore, 50.0)
}

func TestProductivityClampsToRange(t *testing.T) {
	cases := []struct {
		name       string
		lines      int64
		intercept  float64
		wantScore  int
		wantStatus string
	}{
		{"negative raw clamps to zero", 0, -5000, 0, "Low"},
		{"zero raw stays zero", 0, 0, 0, "Low"},
		{"huge raw clamps to hundred", 50000, 0, 100, "High"},
		{"midrange raw lands between", 6000, 0, 60, "Medium"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			artifact := &model.Artifact{
				Kind:         model.KindLinear,
				Features:     features.WorkloadSchema,
				Coefficients: []float64{1.0, 0.0},
				Intercept:    tc.intercept,
			}
			m, err := artifact.Build()
			require.NoError(t, err)

			fs := &fakeStore{linesAdded: tc.lines}
			reg := &mapRegistry{models: map[string]model.Model{model.ProductivityModel: m}}

			res, err := newService(fs, reg).Productivity(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantScore, res.Score)
			assert.Equal(t, tc.wantStatus, res.Status)
		})
	}
}

func TestCollaborationClassTable(t *testing.T) {
	cases := []struct {
		class      float64
		wantStatus string
		wantScore  int
	}{
		{2, "High", 90},
		{1, "Medium", 60},
		{0, "Low", 30},
	}

	for _, tc := range cases {
		reg := &mapRegistry{models: map[string]model.Model{
			model.CollaborationModel: &stubModel{schema: features.CommunicationSchema, out: tc.class},
		}}

		res, err := newService(&fakeStore{}, reg).Collaboration(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, tc.wantStatus, res.Status)
		assert.Equal(t, tc.wantScore, res.Score)
	}
}

func TestCollaborationUnknownClassFallsBack(t *testing.T) {
	reg := &mapRegistry{models: map[string]model.Model{
		model.CollaborationModel: &stubModel{schema: features.CommunicationSchema, out: 7},
	}}

	res, err := newService(&fakeStore{}, reg).Collaboration(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Error", res.Status)
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Features, "avg_sentiment")
}

func TestSchemaDriftIsRejected(t *testing.T) {
	// Artifact trained on a stale schema with a renamed feature.
	reg := &mapRegistry{models: map[string]model.Model{
		model.ProductivityModel: &stubModel{
			schema: []string{"total_lines_changed", "tickets_closed"},
			out:    0,
		},
	}}

	_, err := newService(&fakeStore{}, reg).Productivity(context.Background(), 1)
	require.Error(t, err)

	var mismatch *FeatureMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Missing, "tickets_closed")
	assert.Contains(t, mismatch.Extra, "high_value_tickets_closed")
	assert.Contains(t, mismatch.Error(), "tickets_closed")
}

func TestMissingModelSurfacesAfterExtraction(t *testing.T) {
	reg := &mapRegistry{models: map[string]model.Model{}}

	_, err := newService(&fakeStore{}, reg).Burnout(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrModelNotFound)
}

func TestUnknownDeveloperShortCircuits(t *testing.T) {
	svc := newService(&fakeStore{unknownDev: true}, defaultRegistry(t))

	_, err := svc.Burnout(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Productivity(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Collaboration(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
