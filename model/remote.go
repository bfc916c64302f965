package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"loan-eligibility/domain"
)

// Remote asks a model server for predictions over HTTP.
type Remote struct {
	url        string
	httpClient *http.Client
}

type remoteRequest struct {
	Columns   []string    `json:"columns"`
	Instances [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `mapstructure:"predictions"`
}

func NewRemote(url string, timeout time.Duration) (*Remote, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("model server url is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Remote{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (r *Remote) Name() string { return r.url }

func (r *Remote) Predict(ctx context.Context, features domain.FeatureRecord) (domain.Label, error) {
	label, err := r.predict(ctx, features)
	if err != nil {
		return domain.Rejected, &domain.ModelInferenceError{Model: r.url, Cause: err}
	}
	return label, nil
}

func (r *Remote) predict(ctx context.Context, features domain.FeatureRecord) (domain.Label, error) {
	body, err := json.Marshal(remoteRequest{
		Columns:   domain.FeatureColumns(),
		Instances: [][]float64{features.Values()},
	})
	if err != nil {
		return domain.Rejected, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return domain.Rejected, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.Rejected, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Rejected, fmt.Errorf("model server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	// Servers disagree on whether labels come back as 1, 1.0 or "1".
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Rejected, fmt.Errorf("decoding model server response: %w", err)
	}

	var out remoteResponse
	cfg := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return domain.Rejected, err
	}
	if err := decoder.Decode(payload); err != nil {
		return domain.Rejected, fmt.Errorf("decoding predictions: %w", err)
	}

	if len(out.Predictions) == 0 {
		return domain.Rejected, errors.New("model server returned no predictions")
	}

	switch out.Predictions[0] {
	case 1:
		return domain.Approved, nil
	case 0:
		return domain.Rejected, nil
	default:
		return domain.Rejected, fmt.Errorf("unexpected label %v", out.Predictions[0])
	}
}
