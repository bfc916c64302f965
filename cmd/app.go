package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"loan-eligibility/ai"
	"loan-eligibility/model"
	"loan-eligibility/repository"
	"loan-eligibility/secrets"
	"loan-eligibility/service"
)

// components holds everything a command needs to evaluate applications.
type components struct {
	decisions *service.DecisionService
	closers   []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func newComponents(ctx context.Context, config *Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	predictor, err := newPredictor(config.Model)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded", zap.String("model", predictor.Name()))

	repo, err := newDecisionRepository(ctx, c, config.Storage, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	cache, err := newCache(ctx, c, config.Cache)
	if err != nil {
		c.Close()
		return nil, err
	}

	explainer, err := newExplainer(ctx, config.AI, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.decisions = service.NewDecisionService(predictor, repo, cache, service.DecisionConfig{
		Messages: service.Messages{
			Approved: config.Messages.Approved,
			Rejected: config.Messages.Rejected,
		},
		Timeout:   config.Model.Timeout,
		Explainer: explainer,
	}, logger)

	return c, nil
}

func newPredictor(config ModelConfig) (service.Predictor, error) {
	if url := strings.TrimSpace(config.URL); url != "" {
		return model.NewRemote(url, config.Timeout)
	}
	if strings.TrimSpace(config.Path) == "" {
		return nil, errors.New("either model.path or model.url must be set")
	}
	return model.Load(config.Path)
}

func newDecisionRepository(
	ctx context.Context,
	c *components,
	config StorageConfig,
	logger *zap.Logger,
) (repository.DecisionRepository, error) {
	switch config.Driver {
	case "", "memory":
		return repository.NewDecisionRepositoryMemory(), nil
	case repository.DriverSQLite, repository.DriverPostgres:
		version, err := repository.Migrate(config.Driver, config.DSN, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("storage migrated", zap.String("driver", config.Driver), zap.Uint("version", version))

		repo, err := repository.OpenDecisionRepositorySQL(ctx, config.Driver, config.DSN)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", config.Driver)
	}
}

func newCache(ctx context.Context, c *components, config CacheConfig) (repository.CacheRepository, error) {
	switch config.Driver {
	case "none":
		return nil, nil
	case "", "memory":
		return repository.NewMemoryCache(config.MaxEntries), nil
	case "redis":
		cache := repository.NewRedisCache(repository.RedisOptions{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
			TTL:      config.TTL,
		})
		if err := cache.Ping(ctx); err != nil {
			cache.Close()
			return nil, err
		}
		c.closers = append(c.closers, cache.Close)
		return cache, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", config.Driver)
	}
}

// newExplainer returns nil when explanations are disabled. A missing key
// keeps explanations on the rule-based fallback.
func newExplainer(ctx context.Context, config AIConfig, logger *zap.Logger) (service.Explainer, error) {
	if !config.Enabled {
		return nil, nil
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.APIKey,
		File:  config.APIKeyFile,
	})
	if err != nil {
		logger.Warn("explanations fall back to rules", zap.Error(err),
			zap.String("hint", "set ai.api-key, ai.api-key-file or LOAN_AI_API_KEY"))
		return service.NewExplainService(nil, logger), nil
	}

	generator, err := ai.NewGenerator(ctx, key, config.Model)
	if err != nil {
		return nil, err
	}
	logger.Info("explanations enabled", zap.String("provider", "gemini"), zap.String("model", generator.Model()))

	return service.NewExplainService(generator, logger), nil
}
