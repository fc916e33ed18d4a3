// Package echo provides a dry-run engine that echoes the prompt back.
// It implements the domain.Engine interface without loading a model,
// providing deterministic generations for testing and development purposes.
package echo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/observability"
)

// ErrBusy is returned when Generate is entered while another call is running.
var ErrBusy = errors.New("echo engine is busy: concurrent generation is not supported")

// Option customises the engine.
type Option func(*Engine)

// WithLatency makes every generation take at least d.
func WithLatency(d time.Duration) Option {
	return func(e *Engine) {
		e.latency = d
	}
}

// Engine implements domain.Engine by echoing the prompt.
type Engine struct {
	modelName string
	latency   time.Duration

	mu        sync.RWMutex
	stopwords []string

	busy  atomic.Bool
	calls atomic.Int64
}

// NewEngine creates a dry-run engine reporting modelName.
// No configuration is required as this engine operates entirely in-memory.
func NewEngine(modelName string, opts ...Option) *Engine {
	e := &Engine{modelName: modelName}
	for _, opt := range opts {
		opt(e)
	}
	return e
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

// Calls returns the number of generations run so far.
func (e *Engine) Calls() int64 {
	return e.calls.Load()
}

// Generate implements domain.Engine. The continuation is the prompt with every
// stop sequence removed, truncated to max_new_tokens words.
func (e *Engine) Generate(
	ctx context.Context,
	prompt string,
	params domain.GenerationParams,
	opts domain.GenerateOptions,
) (*domain.Generation, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer e.busy.Store(false)

	e.calls.Add(1)

	logger := observability.FromContext(ctx)
	logger.Debug("echoing prompt")

	if e.latency > 0 {
		time.Sleep(e.latency)
	}

	completion := buildEchoContent(prompt, e.stopSequences(opts.StoppingCriteria), params)

	text := completion
	if !opts.RemovePromptFromReply {
		text = prompt + completion
	}

	promptTokens := countTokens(prompt)
	completionTokens := countTokens(completion)

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &domain.Generation{
		Text:             text,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

func (e *Engine) stopSequences(criteria *domain.StoppingCriteria) []string {
	e.mu.RLock()
	stops := append([]string(nil), e.stopwords...)
	e.mu.RUnlock()

	if criteria != nil {
		stops = append(stops, criteria.Sequences...)
	}
	return stops
}

// buildEchoContent constructs the echoed continuation.
func buildEchoContent(prompt string, stops []string, params domain.GenerationParams) string {
	content := prompt
	for _, stop := range stops {
		if stop != "" {
			content = strings.ReplaceAll(content, stop, " ")
		}
	}

	words := strings.Fields(content)
	if maxTokens, ok := params.Int("max_new_tokens"); ok && maxTokens >= 0 && maxTokens < len(words) {
		words = words[:maxTokens]
	}
	if len(words) == 0 {
		return ""
	}

	return " " + strings.Join(words, " ")
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
