package domain_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/kiln/internal/domain"
)

// fakeGenerator records calls and flags overlapping invocations.
type fakeGenerator struct {
	completionType domain.CompletionType
	generateFunc   func(ctx context.Context, payload domain.RequestPayload) (domain.APIResponse, error)

	// release, when set, blocks every Generate call until it receives.
	release chan struct{}
	started chan domain.RequestPayload

	mu         sync.Mutex
	calls      []domain.RequestPayload
	active     atomic.Int32
	overlapped atomic.Bool
}

func newFakeGenerator(completionType domain.CompletionType) *fakeGenerator {
	return &fakeGenerator{completionType: completionType}
}

func (g *fakeGenerator) CompletionType() domain.CompletionType {
	return g.completionType
}

func (g *fakeGenerator) Generate(ctx context.Context, payload domain.RequestPayload) (domain.APIResponse, error) {
	if g.active.Add(1) > 1 {
		g.overlapped.Store(true)
	}
	defer g.active.Add(-1)

	g.mu.Lock()
	g.calls = append(g.calls, payload)
	g.mu.Unlock()

	if g.started != nil {
		g.started <- payload
	}
	if g.release != nil {
		<-g.release
	}

	if g.generateFunc != nil {
		return g.generateFunc(ctx, payload)
	}

	return defaultResponse(payload), nil
}

func (g *fakeGenerator) BuildDefaultResponse(message string, status int) domain.APIResponse {
	return &domain.CodingResponse{ID: strconv.Itoa(status), Status: status, GeneratedText: message}
}

func (g *fakeGenerator) Calls() []domain.RequestPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.RequestPayload(nil), g.calls...)
}

func defaultResponse(payload domain.RequestPayload) domain.APIResponse {
	switch req := payload.(type) {
	case *domain.CodingRequest:
		return &domain.CodingResponse{ID: "codecmpl-" + req.Inputs, Status: 200, GeneratedText: req.Inputs + " -> done"}
	case *domain.ChatCompletionRequest:
		return &domain.ChatCompletionResponse{ID: "chatcmpl-1", Object: "chat.completion", Model: req.Model}
	default:
		return nil
	}
}

// fakeRegistry is a map-backed GeneratorRegistry.
type fakeRegistry struct {
	generators map[domain.CompletionType]domain.Generator
}

func newFakeRegistry(generators ...domain.Generator) *fakeRegistry {
	r := &fakeRegistry{generators: make(map[domain.CompletionType]domain.Generator)}
	for _, g := range generators {
		r.generators[g.CompletionType()] = g
	}
	return r
}

func (r *fakeRegistry) Register(_ context.Context, generator domain.Generator) error {
	r.generators[generator.CompletionType()] = generator
	return nil
}

func (r *fakeRegistry) Get(_ context.Context, completionType domain.CompletionType) (domain.Generator, error) {
	generator, ok := r.generators[completionType]
	if !ok {
		return nil, fmt.Errorf("generator %s not found", completionType)
	}
	return generator, nil
}

func (r *fakeRegistry) List(_ context.Context) ([]domain.CompletionType, error) {
	types := make([]domain.CompletionType, 0, len(r.generators))
	for t := range r.generators {
		types = append(types, t)
	}
	return types, nil
}

// harness wires a service with a running worker.
type harness struct {
	cache   *domain.ResponseCache
	queue   *domain.AdmissionQueue
	service *domain.CompletionService
}

func newHarness(t *testing.T, cfg *domain.QueueConfig, generators ...domain.Generator) *harness {
	t.Helper()

	h := newIdleHarness(t, cfg, generators...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.queue.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return h
}

// newIdleHarness wires a service whose worker is not started.
func newIdleHarness(t *testing.T, cfg *domain.QueueConfig, generators ...domain.Generator) *harness {
	t.Helper()

	if cfg == nil {
		cfg = &domain.QueueConfig{Capacity: 8}
	}

	cache, err := domain.NewResponseCache(16)
	require.NoError(t, err)

	registry := newFakeRegistry(generators...)

	queue, err := domain.NewAdmissionQueue(cfg, cache, registry)
	require.NoError(t, err)

	return &harness{
		cache:   cache,
		queue:   queue,
		service: domain.NewCompletionService(domain.NewAuthGuard("sk-"), cache, queue, registry, cfg),
	}
}

func codeRequest(inputs string) *domain.CodingRequest {
	return &domain.CodingRequest{Inputs: inputs}
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
