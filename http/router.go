package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterOptions tunes the middleware around the API.
type RouterOptions struct {
	// Limiter may be nil to disable rate limiting.
	Limiter *RateLimiter
	// TrustProxy keys clients on X-Forwarded-For. Enable it only behind a
	// proxy that overwrites the header.
	TrustProxy bool
}

// NewRouter mounts the API.
func NewRouter(handler *DecisionHandler, opts RouterOptions, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger, opts.TrustProxy))
	r.Use(EnableCORS)

	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/loan").Subrouter()
	if opts.Limiter != nil {
		api.Use(RateLimitMiddleware(opts.Limiter, opts.TrustProxy))
	}
	api.HandleFunc("/eligibility", handler.Evaluate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/decisions", handler.History).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/schema", handler.Schema).Methods(http.MethodGet, http.MethodOptions)

	return r
}
