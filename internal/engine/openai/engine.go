// Package openai provides an engine backed by an OpenAI-compatible text
// completion server, using the official SDK. It implements domain.Engine and
// handles conversion between generation parameters and SDK types.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/observability"
)

// The completions endpoint accepts at most four stop sequences.
const maxStopSequences = 4

// Engine implements domain.Engine against a remote completion server.
type Engine struct {
	client    openai.Client
	modelName string
	remote    string

	mu        sync.RWMutex
	stopwords []string
}

// NewEngine creates a remote engine serving modelName.
func NewEngine(modelName string, config Config) (*Engine, error) {
	if config.BaseURL == "" {
		return nil, errors.New("engine base URL is required")
	}
	if modelName == "" {
		return nil, errors.New("model name is required")
	}

	opts := []option.RequestOption{
		option.WithBaseURL(config.BaseURL),
	}

	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	opts = append(opts, option.WithMaxRetries(max(config.MaxRetries, 0)))

	remote := config.Model
	if remote == "" {
		remote = modelName
	}

	return &Engine{
		client:    openai.NewClient(opts...),
		modelName: modelName,
		remote:    remote,
	}, nil
}

// ModelName implements domain.Engine.
func (e *Engine) ModelName() string {
	return e.modelName
}

// AddStopwords implements domain.Engine.
func (e *Engine) AddStopwords(words ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopwords = append(e.stopwords, words...)
}

// StoppingCriteria implements domain.Engine.
func (e *Engine) StoppingCriteria(words []string) *domain.StoppingCriteria {
	return &domain.StoppingCriteria{Sequences: append([]string(nil), words...)}
}

// Generate implements domain.Engine.
func (e *Engine) Generate(
	ctx context.Context,
	prompt string,
	params domain.GenerationParams,
	opts domain.GenerateOptions,
) (*domain.Generation, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling completion server")

	resp, err := e.client.Completions.New(ctx, e.toSDKParams(ctx, prompt, params, opts.StoppingCriteria))
	if err != nil {
		logger.Error("completion server call failed", observability.Error(err))
		return nil, fmt.Errorf("completion server call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("completion server returned no choices")
	}

	logger.Debug("completion server call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	text := resp.Choices[0].Text
	if !opts.RemovePromptFromReply {
		text = prompt + text
	}

	return &domain.Generation{
		Text:             text,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

// toSDKParams converts generation parameters to SDK CompletionNewParams.
func (e *Engine) toSDKParams(
	ctx context.Context,
	prompt string,
	params domain.GenerationParams,
	criteria *domain.StoppingCriteria,
) openai.CompletionNewParams {
	sdkParams := openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(e.remote),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
	}

	if maxTokens, ok := params.Int("max_new_tokens"); ok {
		sdkParams.MaxTokens = openai.Int(int64(maxTokens))
	}

	if temperature, ok := params.Float("temperature"); ok {
		sdkParams.Temperature = openai.Float(temperature)
	}

	if topP, ok := params.Float("top_p"); ok {
		sdkParams.TopP = openai.Float(topP)
	}

	// Greedy decoding.
	if sample, ok := params.Bool("do_sample"); ok && !sample {
		sdkParams.Temperature = openai.Float(0)
	}

	if stops := e.stopSequences(ctx, criteria); len(stops) > 0 {
		sdkParams.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: stops}
	}

	return sdkParams
}

// stopSequences merges request criteria ahead of engine stopwords, without
// duplicates, and keeps the first maxStopSequences.
func (e *Engine) stopSequences(ctx context.Context, criteria *domain.StoppingCriteria) []string {
	var stops []string
	if criteria != nil {
		stops = append(stops, criteria.Sequences...)
	}

	e.mu.RLock()
	stops = append(stops, e.stopwords...)
	e.mu.RUnlock()

	seen := make(map[string]struct{}, len(stops))
	merged := stops[:0]
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if _, ok := seen[stop]; ok {
			continue
		}
		seen[stop] = struct{}{}
		merged = append(merged, stop)
	}

	if len(merged) > maxStopSequences {
		observability.FromContext(ctx).Warn("dropping stop sequences over the server limit",
			observability.Int("limit", maxStopSequences),
			observability.Int("dropped", len(merged)-maxStopSequences),
		)
		merged = merged[:maxStopSequences]
	}
	return merged
}
