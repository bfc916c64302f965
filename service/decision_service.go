package service

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"loan-eligibility/domain"
	"loan-eligibility/repository"
)

// Predictor is the loaded classifier. Implementations must be safe for
// concurrent use.
type Predictor interface {
	Name() string
	Predict(ctx context.Context, features domain.FeatureRecord) (domain.Label, error)
}

// Messages are the strings shown for each outcome.
type Messages struct {
	Approved string
	Rejected string
}

func (m Messages) For(label domain.Label) string {
	if label.Approved() {
		return m.Approved
	}
	return m.Rejected
}

type DecisionConfig struct {
	Messages  Messages
	Timeout   time.Duration
	Explainer Explainer
}

type DecisionService struct {
	predictor Predictor
	repo      repository.DecisionRepository
	cache     repository.CacheRepository
	explainer Explainer
	messages  Messages
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDecisionService wires the classifier with history and cache. cache may be
// nil to disable caching.
func NewDecisionService(
	predictor Predictor,
	repo repository.DecisionRepository,
	cache repository.CacheRepository,
	cfg DecisionConfig,
	logger *zap.Logger,
) *DecisionService {
	if cfg.Messages.Approved == "" {
		cfg.Messages.Approved = DefaultApprovedMessage
	}
	if cfg.Messages.Rejected == "" {
		cfg.Messages.Rejected = DefaultRejectedMessage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultInferenceTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DecisionService{
		predictor: predictor,
		repo:      repo,
		cache:     cache,
		explainer: cfg.Explainer,
		messages:  cfg.Messages,
		timeout:   cfg.Timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Evaluate encodes the application, asks the classifier for a label and
// records the outcome.
func (s *DecisionService) Evaluate(
	ctx context.Context,
	app domain.RawApplication,
) (domain.Decision, error) {

	features, err := Encode(app)
	if err != nil {
		return domain.Decision{}, err
	}

	key := s.cacheKey(features)
	label, cached := s.cachedLabel(ctx, key)

	if !cached {
		label, err = s.predict(ctx, features)
		if err != nil {
			return domain.Decision{}, err
		}

		// Cache errors are not fatal
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, strconv.Itoa(int(label))); err != nil {
				s.logger.Warn("caching prediction", zap.Error(err))
			}
		}
	}

	decision := domain.Decision{
		Label:     label,
		Approved:  label.Approved(),
		Message:   s.messages.For(label),
		Features:  features,
		Cached:    cached,
		DecidedAt: s.now(),
	}

	if s.explainer != nil {
		decision.Explanation = s.explainer.Explain(ctx, app, features, label)
	}

	record := domain.DecisionRecord{
		Application: app,
		Features:    features,
		Label:       label,
		Message:     decision.Message,
		Model:       s.predictor.Name(),
		DecidedAt:   decision.DecidedAt,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Warn("saving decision", zap.Error(err))
	}

	s.logger.Debug("application evaluated",
		zap.String("label", label.String()),
		zap.Bool("cached", cached),
		zap.Float64("debt_income_ratio", features.DebtIncomeRatio),
	)

	return decision, nil
}

// History returns recent decisions, newest first.
func (s *DecisionService) History(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *DecisionService) predict(ctx context.Context, features domain.FeatureRecord) (domain.Label, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	label, err := s.predictor.Predict(ctx, features)
	if err != nil {
		if !domain.IsModelInference(err) {
			err = &domain.ModelInferenceError{Model: s.predictor.Name(), Cause: err}
		}
		return domain.Rejected, err
	}
	if label != domain.Approved && label != domain.Rejected {
		return domain.Rejected, &domain.ModelInferenceError{
			Model: s.predictor.Name(),
			Cause: errors.New("label " + strconv.Itoa(int(label)) + " is not binary"),
		}
	}
	return label, nil
}

func (s *DecisionService) cachedLabel(ctx context.Context, key string) (domain.Label, bool) {
	if s.cache == nil {
		return domain.Rejected, false
	}

	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("reading prediction cache", zap.Error(err))
		}
		return domain.Rejected, false
	}

	switch val {
	case "1":
		return domain.Approved, true
	case "0":
		return domain.Rejected, true
	default:
		s.logger.Warn("ignoring malformed cached label", zap.String("value", val))
		return domain.Rejected, false
	}
}

// cacheKey hashes the model name and the exact bits of every feature.
func (s *DecisionService) cacheKey(features domain.FeatureRecord) string {
	h := xxhash.New()
	h.WriteString(s.predictor.Name())

	var buf [8]byte
	for _, v := range features.Values() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// FormatError renders a failure the way the front-ends display it.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return ErrorPrefix + strings.TrimSpace(err.Error())
}

// Model names the classifier the service is wired with.
func (s *DecisionService) Model() string {
	return s.predictor.Name()
}
