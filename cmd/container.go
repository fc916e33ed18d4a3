package main

import (
	"context"
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/engine/echo"
	"github.com/davidbz/kiln/internal/engine/openai"
	"github.com/davidbz/kiln/internal/feedback"
	feedbackredis "github.com/davidbz/kiln/internal/feedback/redis"
	"github.com/davidbz/kiln/internal/generator"
	kilnhttp "github.com/davidbz/kiln/internal/http"
	"github.com/davidbz/kiln/internal/http/middleware"
	"github.com/davidbz/kiln/internal/observability"
)

func buildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
	}{
		// Configuration
		{"config", func() *config.Config { return cfg }},
		{"config dependencies", config.ParseDependenciesConfig},

		// Observability
		{"logger", observability.InitLogger},

		// Model
		{"engine", newEngine},
		{"generator registry", newGeneratorRegistry},

		// Domain Services
		{"response cache", newResponseCache},
		{"admission queue", domain.NewAdmissionQueue},
		{"auth guard", newAuthGuard},
		{"completion service", domain.NewCompletionService},

		// Feedback
		{"feedback store", newFeedbackStore},
		{"feedback service", feedback.NewService},

		// HTTP Layer
		{"middleware", middleware.BuildMiddlewareSet},
		{"HTTP handler", kilnhttp.NewHandler},
		{"HTTP server", kilnhttp.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

// newEngine loads the echo engine for dry runs and the remote engine otherwise.
// The logger parameter orders logger initialisation first.
func newEngine(model *config.ModelConfig, engineCfg *openai.Config, _ *zap.Logger) (domain.Engine, error) {
	logger := observability.FromContext(context.Background())

	if model.DryRun {
		logger.Info("dry run: serving echo engine", observability.String("model", model.Name))
		return echo.NewEngine(model.Name), nil
	}

	engine, err := openai.NewEngine(model.Name, *engineCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	logger.Info("serving remote engine",
		observability.String("model", model.Name),
		observability.String("base_url", engineCfg.BaseURL))

	return engine, nil
}

func newGeneratorRegistry(model *config.ModelConfig, engine domain.Engine) (domain.GeneratorRegistry, error) {
	types, err := model.ActiveCompletionTypes()
	if err != nil {
		return nil, err
	}
	return generator.BuildRegistry(context.Background(), engine, types)
}

func newResponseCache(cfg *domain.CacheConfig) (*domain.ResponseCache, error) {
	return domain.NewResponseCache(cfg.Capacity)
}

func newAuthGuard(model *config.ModelConfig) *domain.AuthGuard {
	return domain.NewAuthGuard(model.AuthPrefix)
}

func newFeedbackStore(cfg *feedback.Config, _ *zap.Logger) (feedback.Store, error) {
	if !cfg.UseRedis() {
		return feedback.NewMemoryStore(), nil
	}

	return feedbackredis.NewStore(context.Background(), feedbackredis.NewClient(*cfg), cfg.Key)
}
