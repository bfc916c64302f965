package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned when a form value cannot be mapped to its numeric code.
	ErrEncoding = errors.New("encoding error")

	// ErrModelInference is returned when the classifier rejects a record or fails.
	ErrModelInference = errors.New("model inference error")
)

// EncodingError names the offending field and its raw value.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Field, e.Value)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// ModelInferenceError wraps the failure reported by a predictor.
type ModelInferenceError struct {
	Model string
	Cause error
}

func (e *ModelInferenceError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("inference failed: %v", e.Cause)
	}
	return fmt.Sprintf("inference failed on %s: %v", e.Model, e.Cause)
}

// Unwrap exposes both the sentinel and the cause so callers can match either.
func (e *ModelInferenceError) Unwrap() []error {
	return []error{ErrModelInference, e.Cause}
}

func IsEncoding(err error) bool       { return errors.Is(err, ErrEncoding) }
func IsModelInference(err error) bool { return errors.Is(err, ErrModelInference) }
