// Package model holds the predictors the decision service can be wired with:
// a logistic model loaded from a local artifact and a client for a remote
// model server.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"loan-eligibility/domain"
)

const defaultThreshold = 0.5

// Artifact is the on-disk form of a trained logistic classifier.
type Artifact struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Threshold    float64   `json:"threshold"`
}

// Linear is read-only after Load and safe for concurrent use.
type Linear struct {
	name         string
	intercept    float64
	coefficients []float64
	threshold    float64
}

// Load reads an artifact from path and checks it against the feature schema.
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact %q: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decoding model artifact %q: %w", path, err)
	}

	return NewLinear(artifact)
}

// NewLinear validates the artifact shape. A column list that differs from
// domain.FeatureColumns in names or order is rejected.
func NewLinear(artifact Artifact) (*Linear, error) {
	name := artifact.Name
	if name == "" {
		name = "linear"
	}
	if artifact.Version != "" {
		name += "@" + artifact.Version
	}

	if err := checkSchema(artifact.Features); err != nil {
		return nil, &domain.ModelInferenceError{Model: name, Cause: err}
	}
	if len(artifact.Coefficients) != domain.FeatureCount {
		return nil, &domain.ModelInferenceError{
			Model: name,
			Cause: fmt.Errorf("expected %d coefficients, got %d", domain.FeatureCount, len(artifact.Coefficients)),
		}
	}

	threshold := artifact.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, &domain.ModelInferenceError{
			Model: name,
			Cause: fmt.Errorf("threshold %v outside [0, 1]", threshold),
		}
	}

	coefficients := make([]float64, len(artifact.Coefficients))
	copy(coefficients, artifact.Coefficients)

	return &Linear{
		name:         name,
		intercept:    artifact.Intercept,
		coefficients: coefficients,
		threshold:    threshold,
	}, nil
}

func checkSchema(features []string) error {
	columns := domain.FeatureColumns()
	if len(features) != len(columns) {
		return fmt.Errorf("expected %d features, got %d", len(columns), len(features))
	}
	for i, col := range columns {
		if features[i] != col {
			return fmt.Errorf("feature %d: expected %q, got %q", i, col, features[i])
		}
	}
	return nil
}

func (m *Linear) Name() string { return m.name }

// Probability returns the approval probability for the record.
func (m *Linear) Probability(features domain.FeatureRecord) float64 {
	z := m.intercept
	for i, x := range features.Values() {
		z += m.coefficients[i] * x
	}
	return 1 / (1 + math.Exp(-z))
}

func (m *Linear) Predict(ctx context.Context, features domain.FeatureRecord) (domain.Label, error) {
	if err := ctx.Err(); err != nil {
		return domain.Rejected, &domain.ModelInferenceError{Model: m.name, Cause: err}
	}

	p := m.Probability(features)
	if math.IsNaN(p) {
		return domain.Rejected, &domain.ModelInferenceError{Model: m.name, Cause: errors.New("probability is NaN")}
	}
	if p >= m.threshold {
		return domain.Approved, nil
	}
	return domain.Rejected, nil
}
