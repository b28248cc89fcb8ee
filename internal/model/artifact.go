package model

import (
	"errors"
	"fmt"
)

// Artifact kinds.
const (
	KindLogistic   = "logistic"
	KindLinear     = "linear"
	KindMulticlass = "multiclass_logistic"
)

// Artifact is the on-disk form of a trained model: weights plus the ordered
// feature schema it was trained on. Training happens offline; this package
// only deserializes the result. Carrying the schema inside the artifact lets
// the registry fail fast on drift at load time instead of at prediction time.
type Artifact struct {
	Kind     string   `json:"kind"`
	Version  int      `json:"version"`
	Features []string `json:"features"`

	// Binary / regression weights.
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`

	// Multiclass weights, one row per class.
	Classes           []int       `json:"classes,omitempty"`
	ClassCoefficients [][]float64 `json:"class_coefficients,omitempty"`
	ClassIntercepts   []float64   `json:"class_intercepts,omitempty"`
}

// Validate checks that the artifact is internally consistent.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return errors.New("artifact has no feature schema")
	}

	switch a.Kind {
	case KindLogistic, KindLinear:
		if len(a.Coefficients) != len(a.Features) {
			return fmt.Errorf("artifact has %d coefficients for %d features",
				len(a.Coefficients), len(a.Features))
		}
	case KindMulticlass:
		if len(a.Classes) == 0 {
			return errors.New("multiclass artifact has no classes")
		}
		if len(a.ClassCoefficients) != len(a.Classes) || len(a.ClassIntercepts) != len(a.Classes) {
			return fmt.Errorf("multiclass artifact has %d classes but %d coefficient rows and %d intercepts",
				len(a.Classes), len(a.ClassCoefficients), len(a.ClassIntercepts))
		}
		for i, row := range a.ClassCoefficients {
			if len(row) != len(a.Features) {
				return fmt.Errorf("class %d has %d coefficients for %d features",
					a.Classes[i], len(row), len(a.Features))
			}
		}
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}

	return nil
}

// Build turns a validated artifact into a usable Model.
func (a *Artifact) Build() (Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	switch a.Kind {
	case KindLinear:
		return &linearModel{schema: a.Features, coefs: a.Coefficients, intercept: a.Intercept}, nil
	case KindLogistic:
		return &logisticModel{schema: a.Features, coefs: a.Coefficients, intercept: a.Intercept}, nil
	case KindMulticlass:
		return &multiclassModel{
			schema:     a.Features,
			classes:    a.Classes,
			coefs:      a.ClassCoefficients,
			intercepts: a.ClassIntercepts,
		}, nil
	}
	return nil, fmt.Errorf("unknown artifact kind %q", a.Kind)
}
