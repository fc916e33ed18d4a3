// Package generator translates typed completion payloads into engine calls
// and engine results back into completion responses.
package generator

import (
	"context"
	"fmt"

	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/observability"
)

// New builds the generator for a completion type.
func New(completionType domain.CompletionType, engine domain.Engine) (domain.Generator, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine cannot be nil", domain.ErrConfiguration)
	}

	switch completionType {
	case domain.CompletionTypeChat:
		return NewChatGenerator(engine), nil
	case domain.CompletionTypeCode:
		return NewCodeGenerator(engine), nil
	default:
		return nil, fmt.Errorf("%w: no generator for completion type %q", domain.ErrConfiguration, completionType)
	}
}

// BuildRegistry registers one generator per active completion type, all
// sharing the same engine.
func BuildRegistry(
	ctx context.Context,
	engine domain.Engine,
	completionTypes []domain.CompletionType,
) (*Registry, error) {
	if len(completionTypes) == 0 {
		return nil, fmt.Errorf("%w: no completion types enabled", domain.ErrConfiguration)
	}

	registry := NewRegistry()
	for _, completionType := range completionTypes {
		gen, err := New(completionType, engine)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(ctx, gen); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
	}

	return registry, nil
}

// invoke calls the engine and turns any error or panic into ErrGeneration,
// keeping the raw detail in the logs only.
func invoke(
	ctx context.Context,
	kind string,
	call func() (*domain.Generation, error),
) (generation *domain.Generation, err error) {
	logger := observability.FromContext(ctx)

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error(fmt.Sprintf("Llm %s inference error: %v", kind, recovered))
			logger.Debug("Full stacktrace", observability.Stack("stacktrace"))
			generation, err = nil, domain.ErrGeneration
		}
	}()

	generation, err = call()
	if err != nil {
		logger.Error(fmt.Sprintf("Llm %s inference error", kind), observability.Error(err))
		logger.Debug("Full stacktrace", observability.Stack("stacktrace"))
		return nil, domain.ErrGeneration
	}
	if generation == nil {
		logger.Error(fmt.Sprintf("Llm %s inference returned no result", kind))
		return nil, domain.ErrGeneration
	}

	return generation, nil
}

func optional[T any](value *T) any {
	if value == nil {
		return nil
	}
	return *value
}
