package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-eligibility/domain"
	"loan-eligibility/repository"
	"loan-eligibility/service"
)

type stubPredictor struct {
	label domain.Label
	err   error
}

func (s stubPredictor) Name() string { return "stub" }

func (s stubPredictor) Predict(context.Context, domain.FeatureRecord) (domain.Label, error) {
	return s.label, s.err
}

func newTestHandler(p service.Predictor) *DecisionHandler {
	repo := repository.NewDecisionRepositoryMemory()
	svc := service.NewDecisionService(p, repo, nil, service.DecisionConfig{}, nil)
	return NewDecisionHandler(svc, nil)
}

const validBody = `{
	"gender": "Male",
	"married": "Yes",
	"dependents": "0",
	"education": "Graduate",
	"self_employed": "No",
	"applicant_income": 5000,
	"coapplicant_income": 0,
	"loan_amount": 100,
	"loan_term_months": 360,
	"credit_history": "Good (1.0)",
	"property_area": "Urban"
}`

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Message
}

func TestEvaluateHandler_OK(t *testing.T) {
	handler := newTestHandler(stubPredictor{label: domain.Approved})

	req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBufferString(validBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var decision domain.Decision
	if err := json.NewDecoder(w.Body).Decode(&decision); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decision.Message != "APPROVED: You meet the criteria." {
		t.Errorf("unexpected message %q", decision.Message)
	}
	if decision.Features.TotalIncome != 5000 || decision.Features.PropertyArea != 2 {
		t.Errorf("unexpected features %+v", decision.Features)
	}
}

func TestEvaluateHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(stubPredictor{})

	req := httptest.NewRequest(http.MethodGet, "/loan/eligibility", nil)
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestEvaluateHandler_BadRequest(t *testing.T) {
	handler := newTestHandler(stubPredictor{})

	req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBufferString(`{invalid-json}`))
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg[:7] != "Error: " {
		t.Errorf("expected Error: prefix, got %q", msg)
	}
}

func TestEvaluateHandler_EncodingError(t *testing.T) {
	handler := newTestHandler(stubPredictor{})

	body := bytes.Replace([]byte(validBody), []byte(`"dependents": "0"`), []byte(`"dependents": "four"`), 1)
	req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBuffer(body))
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != `Error: invalid dependents value "four"` {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestEvaluateHandler_InferenceError(t *testing.T) {
	handler := newTestHandler(stubPredictor{err: errors.New("shape mismatch")})

	req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBufferString(validBody))
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if msg := decodeMessage(t, w); msg != "Error: inference failed on stub: shape mismatch" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestEvaluateHandler_UnsupportedMediaType(t *testing.T) {
	handler := newTestHandler(stubPredictor{})

	req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBufferString(validBody))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	handler.Evaluate(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
}

func TestRouter_HistoryAndSchema(t *testing.T) {
	handler := newTestHandler(stubPredictor{label: domain.Rejected})
	router := NewRouter(handler, RouterOptions{}, nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/loan/eligibility", bytes.NewBufferString(validBody))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/loan/decisions?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var records []domain.DecisionRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Message != "REJECTED: High risk flagged." {
		t.Errorf("unexpected message %q", records[0].Message)
	}

	req = httptest.NewRequest(http.MethodGet, "/loan/decisions?limit=abc", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/loan/schema", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var schema schemaResponse
	if err := json.NewDecoder(w.Body).Decode(&schema); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if schema.Model != "stub" || len(schema.Columns) != domain.FeatureCount {
		t.Errorf("unexpected schema %+v", schema)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newTestHandler(stubPredictor{}), RouterOptions{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/loan/eligibility", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS header")
	}
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	router := NewRouter(newTestHandler(stubPredictor{}), RouterOptions{Limiter: limiter}, nil)

	codes := []int{}
	for _, fwd := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/loan/schema", nil)
		req.Header.Set("X-Forwarded-For", fwd)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("a new X-Forwarded-For value must not reset the bucket, got %v", codes)
	}
}

func TestRouter_RateLimited(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	router := NewRouter(newTestHandler(stubPredictor{}), RouterOptions{Limiter: limiter}, nil)

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/loan/schema", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("health check must not be rate limited, got %d", w.Code)
	}
}
