package model

import (
	"fmt"
	"math"
)

// Model is a trained scoring artifact. The pipeline treats it as opaque: it
// only knows the ordered feature schema the model was trained on and how to
// ask for a prediction.
type Model interface {
	// Schema returns the ordered feature names the model expects.
	Schema() []string

	// Predict returns the raw prediction: a class label for classifiers,
	// an unbounded value for regressors. Values must be in schema order.
	Predict(values []float64) (float64, error)
}

// Classifier is a Model that also exposes per-class probabilities.
type Classifier interface {
	Model

	// Probabilities returns one probability per class, in class order.
	Probabilities(values []float64) ([]float64, error)
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func dot(coefs, values []float64) float64 {
	s := 0.0
	for i, c := range coefs {
		s += c * values[i]
	}
	return s
}

func checkWidth(schema []string, values []float64) error {
	if len(values) != len(schema) {
		return fmt.Errorf("expected %d feature values, got %d", len(schema), len(values))
	}
	return nil
}

// linearModel is a plain linear regressor.
type linearModel struct {
	schema    []string
	coefs     []float64
	intercept float64
}

func (m *linearModel) Schema() []string { return m.schema }

func (m *linearModel) Predict(values []float64) (float64, error) {
	if err := checkWidth(m.schema, values); err != nil {
		return 0, err
	}
	return dot(m.coefs, values) + m.intercept, nil
}

// logisticModel is a binary logistic classifier; class 1 is the positive one.
type logisticModel struct {
	schema    []string
	coefs     []float64
	intercept float64
}

func (m *logisticModel) Schema() []string { return m.schema }

func (m *logisticModel) Predict(values []float64) (float64, error) {
	probs, err := m.Probabilities(values)
	if err != nil {
		return 0, err
	}
	if probs[1] >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *logisticModel) Probabilities(values []float64) ([]float64, error) {
	if err := checkWidth(m.schema, values); err != nil {
		return nil, err
	}
	p := sigmoid(dot(m.coefs, values) + m.intercept)
	return []float64{1 - p, p}, nil
}

// multiclassModel is a one-vs-rest logistic classifier with softmax over the
// per-class scores.
type multiclassModel struct {
	schema     []string
	classes    []int
	coefs      [][]float64
	intercepts []float64
}

func (m *multiclassModel) Schema() []string { return m.schema }

func (m *multiclassModel) Predict(values []float64) (float64, error) {
	probs, err := m.Probabilities(values)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return float64(m.classes[best]), nil
}

func (m *multiclassModel) Probabilities(values []float64) ([]float64, error) {
	if err := checkWidth(m.schema, values); err != nil {
		return nil, err
	}

	scores := make([]float64, len(m.classes))
	maxScore := math.Inf(-1)
	for i := range m.classes {
		scores[i] = dot(m.coefs[i], values) + m.intercepts[i]
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}

	// Softmax, shifted by the max score for numerical stability.
	sum := 0.0
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}
