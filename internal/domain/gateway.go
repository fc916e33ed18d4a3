package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/kiln/internal/observability"
)

// maxClaimAttempts bounds lookup/claim retries when a fingerprint changes
// state between Lookup and BeginPending.
const maxClaimAttempts = 8

// CompletionService orchestrates auth, fingerprinting, caching and admission
// for every completion request.
type CompletionService struct {
	guard       *AuthGuard
	cache       *ResponseCache
	queue       *AdmissionQueue
	generators  GeneratorRegistry
	waitTimeout time.Duration
}

// NewCompletionService creates a new completion service (DI constructor).
func NewCompletionService(
	guard *AuthGuard,
	cache *ResponseCache,
	queue *AdmissionQueue,
	generators GeneratorRegistry,
	cfg *QueueConfig,
) *CompletionService {
	var waitTimeout time.Duration
	if cfg != nil {
		waitTimeout = cfg.WaitDuration()
	}

	return &CompletionService{
		guard:       guard,
		cache:       cache,
		queue:       queue,
		generators:  generators,
		waitTimeout: waitTimeout,
	}
}

// Handle serves one completion request.
func (s *CompletionService) Handle(
	ctx context.Context,
	authorization string,
	payload RequestPayload,
) (APIResponse, error) {
	if err := s.guard.Verify(authorization); err != nil {
		return nil, err
	}

	if payload == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", ErrValidation)
	}

	completionType := payload.CompletionType()
	if _, err := s.generators.Get(ctx, completionType); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, completionType)
	}

	fp := payload.Key()
	ctx = observability.WithCompletionType(ctx, string(completionType))
	ctx = observability.WithFingerprint(ctx, fp.Short())
	logger := observability.FromContext(ctx)

	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}

	for range maxClaimAttempts {
		lookup := s.cache.Lookup(fp)

		switch lookup.State {
		case CacheReady:
			logger.Info("cache HIT - returning cached response")
			return lookup.Response, nil

		case CachePending:
			logger.Info("joining in-flight computation")
			return s.await(ctx, lookup.Flight, true)

		case CacheMiss:
			flight, claimed := s.cache.BeginPending(fp)
			if !claimed {
				continue
			}

			job, err := s.queue.Enqueue(ctx, fp, payload)
			if err != nil {
				s.cache.Fail(fp, err)
				logger.Warn("admission rejected", observability.Error(err))
				return nil, err
			}

			logger.Info("cache MISS - job admitted",
				observability.Uint64("sequence", job.Sequence),
				observability.Int("queue_depth", s.queue.Depth()))
			return s.await(ctx, flight, false)
		}
	}

	return nil, fmt.Errorf("%w: fingerprint contention", ErrAdmission)
}

// Stats returns a snapshot of queue and cache occupancy.
func (s *CompletionService) Stats() Stats {
	return Stats{
		QueueDepth:    s.queue.Depth(),
		QueueCapacity: s.queue.Capacity(),
		CachedEntries: s.cache.Len(),
		PendingKeys:   s.cache.PendingLen(),
	}
}

// Stats describes queue and cache occupancy.
type Stats struct {
	QueueDepth    int `json:"queue_depth"`
	QueueCapacity int `json:"queue_capacity"`
	CachedEntries int `json:"cached_entries"`
	PendingKeys   int `json:"pending_keys"`
}

// await waits on a flight. Callers that joined someone else's computation see
// cached=true; the caller that admitted the job sees cached=false.
func (s *CompletionService) await(ctx context.Context, flight *Flight, joined bool) (APIResponse, error) {
	response, err := flight.Wait(ctx)
	if err != nil {
		if errors.Is(err, ErrRequestTimeout) {
			observability.FromContext(ctx).Warn("stopped waiting for completion", observability.Error(err))
		}
		return nil, err
	}

	return response.WithCached(joined), nil
}
