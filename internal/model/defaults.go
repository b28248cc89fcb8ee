package model

// Score type names; artifact files are <name>_model.json.
const (
	BurnoutModel       = "burnout"
	ProductivityModel  = "productivity"
	CollaborationModel = "collaboration"
)

// DefaultArtifacts returns demo-grade artifacts for the three score types,
// used to bootstrap a fresh deployment before the training jobs have run.
// The weights are hand-set baselines, not trained parameters.
func DefaultArtifacts() map[string]*Artifact {
	return map[string]*Artifact{
		BurnoutModel: {
			Kind:     KindLogistic,
			Version:  1,
			Features: []string{"after_hours_ratio", "weekend_ratio", "open_tickets", "avg_time_spent"},
			// Late work and ticket load dominate; time spent nudges.
			Coefficients: []float64{3.0, 2.0, 0.25, 0.05},
			Intercept:    -3.5,
		},
		ProductivityModel: {
			Kind:         KindLinear,
			Version:      1,
			Features:     []string{"total_lines_changed", "high_value_tickets_closed"},
			Coefficients: []float64{1.0, 500.0},
			Intercept:    0,
		},
		CollaborationModel: {
			Kind:     KindMulticlass,
			Version:  1,
			Features: []string{"avg_sentiment", "response_ratio"},
			Classes:  []int{0, 1, 2},
			ClassCoefficients: [][]float64{
				{-4.0, -3.0},
				{1.0, 1.0},
				{4.0, 3.0},
			},
			ClassIntercepts: []float64{2.0, 0.0, -2.5},
		},
	}
}
