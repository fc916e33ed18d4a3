package domain_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/kiln/internal/domain"
)

func TestCompletionService_AuthGate(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	h := newHarness(t, nil, generator)

	tests := []struct {
		name          string
		authorization string
		wantErr       error
	}{
		{name: "wrong scheme", authorization: "Basic sk-abc", wantErr: domain.ErrAuthentication},
		{name: "wrong prefix", authorization: "Bearer wrong-abc", wantErr: domain.ErrAuthentication},
		{name: "missing header", authorization: "", wantErr: domain.ErrAuthentication},
		{name: "valid token", authorization: "Bearer sk-abc", wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := h.service.Handle(context.Background(), tt.authorization, codeRequest("auth"))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, response)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, response)
		})
	}

	// Rejected requests never reach the generator.
	require.Len(t, generator.Calls(), 1)
}

func TestCompletionService_NilPayload(t *testing.T) {
	h := newHarness(t, nil, newFakeGenerator(domain.CompletionTypeCode))

	response, err := h.service.Handle(context.Background(), "Bearer sk-abc", nil)

	require.ErrorIs(t, err, domain.ErrValidation)
	require.Nil(t, response)
}

func TestCompletionService_UnsupportedType(t *testing.T) {
	h := newHarness(t, nil, newFakeGenerator(domain.CompletionTypeCode))

	chat := &domain.ChatCompletionRequest{
		Model:    "llama-7b",
		Messages: []domain.ChatMessage{{Role: "user", Content: "Hi"}},
	}
	response, err := h.service.Handle(context.Background(), "Bearer sk-abc", chat)

	require.ErrorIs(t, err, domain.ErrUnsupportedType)
	require.Nil(t, response)
	require.Zero(t, h.cache.PendingLen())
}

func TestCompletionService_SecondRequestIsCached(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	h := newHarness(t, nil, generator)

	first, err := h.service.Handle(context.Background(), "Bearer sk-abc", codeRequest("def f():"))
	require.NoError(t, err)
	require.False(t, first.IsCached())

	second, err := h.service.Handle(context.Background(), "Bearer sk-other", codeRequest("def f():"))
	require.NoError(t, err)
	require.True(t, second.IsCached())
	require.Equal(t, first.ResponseID(), second.ResponseID())

	// The first caller's copy is unaffected.
	require.False(t, first.IsCached())
	require.Len(t, generator.Calls(), 1)
}

func TestCompletionService_ConcurrentIdenticalRequestsComputeOnce(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	generator.release = make(chan struct{})
	generator.started = make(chan domain.RequestPayload, 1)
	h := newHarness(t, nil, generator)

	const callers = 5

	type result struct {
		response domain.APIResponse
		err      error
	}
	results := make(chan result, callers)

	var wg sync.WaitGroup
	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response, err := h.service.Handle(context.Background(), "Bearer sk-abc", codeRequest("same"))
			results <- result{response: response, err: err}
		}()
	}

	launch()
	<-generator.started

	for range callers - 1 {
		launch()
	}
	require.Eventually(t, func() bool {
		return h.cache.PendingLen() == 1 && h.queue.Depth() == 0
	}, time.Second, time.Millisecond)

	// Give joiners time to attach before the computation finishes.
	time.Sleep(20 * time.Millisecond)
	close(generator.release)
	wg.Wait()
	close(results)

	var computed, cached int
	for r := range results {
		require.NoError(t, r.err)
		require.Equal(t, "codecmpl-same", r.response.ResponseID())
		if r.response.IsCached() {
			cached++
		} else {
			computed++
		}
	}

	require.Equal(t, 1, computed)
	require.Equal(t, callers-1, cached)
	require.Len(t, generator.Calls(), 1)
}

func TestCompletionService_FailureIsNotCached(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	var fail sync.Mutex
	failing := true
	generator.generateFunc = func(_ context.Context, payload domain.RequestPayload) (domain.APIResponse, error) {
		fail.Lock()
		defer fail.Unlock()
		if failing {
			failing = false
			return nil, errors.New("out of memory")
		}
		return defaultResponse(payload), nil
	}
	h := newHarness(t, nil, generator)

	_, err := h.service.Handle(context.Background(), "Bearer sk-abc", codeRequest("retry"))
	require.ErrorIs(t, err, domain.ErrGeneration)
	require.Zero(t, h.cache.Len())

	response, err := h.service.Handle(context.Background(), "Bearer sk-abc", codeRequest("retry"))
	require.NoError(t, err)
	require.False(t, response.IsCached())
	require.Len(t, generator.Calls(), 2)
}

func TestCompletionService_WaitTimeout(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	generator.release = make(chan struct{})
	h := newHarness(t, &domain.QueueConfig{Capacity: 4, WaitTimeout: 1}, generator)
	t.Cleanup(func() { close(generator.release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	response, err := h.service.Handle(ctx, "Bearer sk-abc", codeRequest("slow"))

	require.ErrorIs(t, err, domain.ErrRequestTimeout)
	require.Nil(t, response)
	// The computation keeps its pending entry for later callers.
	require.Equal(t, 1, h.cache.PendingLen())
}

func TestCompletionService_AdmissionFull(t *testing.T) {
	generator := newFakeGenerator(domain.CompletionTypeCode)
	h := newIdleHarness(t, &domain.QueueConfig{Capacity: 1}, generator)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Fills the only slot; nobody drains it.
	_, err := h.service.Handle(ctx, "Bearer sk-abc", codeRequest("first"))
	require.ErrorIs(t, err, domain.ErrRequestTimeout)

	response, err := h.service.Handle(context.Background(), "Bearer sk-abc", codeRequest("second"))
	require.ErrorIs(t, err, domain.ErrAdmission)
	require.Nil(t, response)

	// The rejected fingerprint is released so a later request can claim it.
	require.Equal(t, domain.CacheMiss, h.cache.Lookup(codeRequest("second").Key()).State)
}

func TestCompletionService_Stats(t *testing.T) {
	h := newIdleHarness(t, &domain.QueueConfig{Capacity: 4}, newFakeGenerator(domain.CompletionTypeCode))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _ = h.service.Handle(ctx, "Bearer sk-abc", codeRequest("queued"))

	stats := h.service.Stats()
	require.Equal(t, 1, stats.QueueDepth)
	require.Equal(t, 4, stats.QueueCapacity)
	require.Equal(t, 1, stats.PendingKeys)
	require.Zero(t, stats.CachedEntries)
}
