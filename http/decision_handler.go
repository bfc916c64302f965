package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"loan-eligibility/domain"
	"loan-eligibility/service"
)

const maxBodyBytes = 1 << 16

type DecisionHandler struct {
	service *service.DecisionService
	logger  *zap.Logger
}

func NewDecisionHandler(service *service.DecisionService, logger *zap.Logger) *DecisionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionHandler{service: service, logger: logger}
}

type messageResponse struct {
	Message string `json:"message"`
}

type schemaResponse struct {
	Model   string   `json:"model"`
	Columns []string `json:"columns"`
}

// Evaluate handles POST /loan/eligibility. Every failure is answered with an
// "Error: ..." message instead of a bare status.
func (h *DecisionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMessage(w, http.StatusMethodNotAllowed, "Error: method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "application/json") {
		writeMessage(w, http.StatusUnsupportedMediaType, "Error: Content-Type must be application/json")
		return
	}

	var input domain.RawApplication
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		h.logger.Debug("decoding request body", zap.Error(err))
		writeMessage(w, http.StatusBadRequest, service.FormatError(errors.New("invalid request body: "+err.Error())))
		return
	}

	decision, err := h.service.Evaluate(r.Context(), input)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case domain.IsEncoding(err):
			status = http.StatusBadRequest
		case domain.IsModelInference(err):
			status = http.StatusBadGateway
		}
		h.logger.Warn("evaluating application", zap.Error(err), zap.Int("status", status))
		writeMessage(w, status, service.FormatError(err))
		return
	}

	writeJSON(w, http.StatusOK, decision, h.logger)
}

// History handles GET /loan/decisions?limit=N.
func (h *DecisionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "Error: limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing decisions", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, service.FormatError(err))
		return
	}

	writeJSON(w, http.StatusOK, records, h.logger)
}

// Schema handles GET /loan/schema.
func (h *DecisionHandler) Schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schemaResponse{
		Model:   h.service.Model(),
		Columns: domain.FeatureColumns(),
	}, h.logger)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message}, nil)
}

// writeJSON encodes into a buffer first so a failed encode does not leave a
// half-written 200 behind.
func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		if logger != nil {
			logger.Error("encoding response", zap.Error(err))
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil && logger != nil {
		logger.Warn("writing response", zap.Error(err))
	}
}
