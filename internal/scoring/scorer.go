package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/teampulse/teampulse-backend/internal/features"
	"github.com/teampulse/teampulse-backend/internal/model"
)

// FeatureMismatchError means the computed feature vector does not match the
// schema the model was trained on: versioning drift between the extractor
// and the artifact. It must never be silently coerced.
type FeatureMismatchError struct {
	Model   string
	Missing []string
	Extra   []string
}

func (e *FeatureMismatchError) Error() string {
	parts := []string{fmt.Sprintf("feature mismatch for %s model", e.Model)}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "extra: "+strings.Join(e.Extra, ", "))
	}
	if len(e.Missing) == 0 && len(e.Extra) == 0 {
		parts = append(parts, "feature order differs from model schema")
	}
	return strings.Join(parts, "; ")
}

// BurnoutResult is the burnout scoring output.
type BurnoutResult struct {
	RiskLevel string             `json:"risk_level"`
	RiskScore float64            `json:"risk_score"`
	Features  map[string]float64 `json:"features"`
}

// ProductivityResult is the productivity scoring output.
type ProductivityResult struct {
	Status   string             `json:"status"`
	Score    int                `json:"score"`
	Features map[string]float64 `json:"features"`
}

// CollaborationResult is the collaboration scoring output.
type CollaborationResult struct {
	Status   string             `json:"status"`
	Score    int                `json:"score"`
	Features map[string]float64 `json:"features"`
}

// collaborationTable maps the 3-class collaboration output to label/score.
var collaborationTable = map[int]struct {
	status string
	score  int
}{
	2: {"High", 90},
	1: {"Medium", 60},
	0: {"Low", 30},
}

// Service runs the per-request pipeline: extract -> validate -> predict ->
// post-process. Stateless; failures at any stage short-circuit, no retries.
type Service struct {
	extractor *features.Extractor
	registry  model.Registry
	logger    *slog.Logger
}

// NewService creates a scoring service.
func NewService(extractor *features.Extractor, registry model.Registry) *Service {
	return &Service{
		extractor: extractor,
		registry:  registry,
		logger:    slog.Default(),
	}
}

// validateSchema asserts the vector carries exactly the features the model
// expects, in the model's order.
func validateSchema(name string, v *features.Vector, m model.Model) error {
	have := v.Names()
	want := m.Schema()

	if len(have) == len(want) {
		equal := true
		for i := range want {
			if have[i] != want[i] {
				equal = false
				break
			}
		}
		if equal {
			return nil
		}
	}

	haveSet := make(map[string]bool, len(have))
	for _, n := range have {
		haveSet[n] = true
	}
	wantSet := make(map[string]bool, len(want))
	for _, n := range want {
		wantSet[n] = true
	}

	mismatch := &FeatureMismatchError{Model: name}
	for _, n := range want {
		if !haveSet[n] {
			mismatch.Missing = append(mismatch.Missing, n)
		}
	}
	for _, n := range have {
		if !wantSet[n] {
			mismatch.Extra = append(mismatch.Extra, n)
		}
	}
	return mismatch
}

// Burnout scores burnout risk for a developer. Features are computed before
// the model is loaded, so extraction succeeds independently of artifact
// availability.
func (s *Service) Burnout(ctx context.Context, developerID int64) (*BurnoutResult, error) {
	fv, err := s.extractor.WorkPattern(ctx, developerID)
	if err != nil {
		return nil, err
	}

	m, err := s.registry.Load(model.BurnoutModel)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(model.BurnoutModel, fv, m); err != nil {
		return nil, err
	}

	clf, ok := m.(model.Classifier)
	if !ok {
		return nil, fmt.Errorf("burnout artifact is not a classifier")
	}

	values := fv.Ordered()
	predicted, err := clf.Predict(values)
	if err != nil {
		return nil, err
	}
	probs, err := clf.Probabilities(values)
	if err != nil {
		return nil, err
	}

	level := "Low"
	if int(predicted) == 1 {
		level = "High"
	}

	return &BurnoutResult{
		RiskLevel: level,
		RiskScore: math.Round(probs[1]*100*100) / 100,
		Features:  fv.Map(),
	}, nil
}

// Productivity scores a developer's output. The regressor's raw value is
// normalized by dividing by 100, rounding, and clamping to [0, 100].
func (s *Service) Productivity(ctx context.Context, developerID int64) (*ProductivityResult, error) {
	fv, err := s.extractor.Workload(ctx, developerID)
	if err != nil {
		return nil, err
	}

	m, err := s.registry.Load(model.ProductivityModel)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(model.ProductivityModel, fv, m); err != nil {
		return nil, err
	}

	raw, err := m.Predict(fv.Ordered())
	if err != nil {
		return nil, err
	}

	score := int(math.Round(raw / 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := "Low"
	switch {
	case score >= 80:
		status = "High"
	case score >= 50:
		status = "Medium"
	}

	return &ProductivityResult{Status: status, Score: score, Features: fv.Map()}, nil
}

// Collaboration scores a developer's communication. The classifier must emit
// class 0, 1, or 2; anything else is an invariant violation that is logged
// as a data-integrity warning and answered with the Error fallback so the
// response contract stays total.
func (s *Service) Collaboration(ctx context.Context, developerID int64) (*CollaborationResult, error) {
	fv, err := s.extractor.Communication(ctx, developerID)
	if err != nil {
		return nil, err
	}

	m, err := s.registry.Load(model.CollaborationModel)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(model.CollaborationModel, fv, m); err != nil {
		return nil, err
	}

	predicted, err := m.Predict(fv.Ordered())
	if err != nil {
		return nil, err
	}

	class := int(predicted)
	entry, ok := collaborationTable[class]
	if !ok {
		s.logger.Warn("collaboration model emitted unknown class",
			"class", class,
			"developer_id", developerID)
		return &CollaborationResult{Status: "Error", Score: 0, Features: fv.Map()}, nil
	}

	return &CollaborationResult{Status: entry.status, Score: entry.score, Features: fv.Map()}, nil
}
