package domain

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheState is the state of a fingerprint in the response cache.
type CacheState int

const (
	CacheMiss CacheState = iota
	CachePending
	CacheReady
)

// String returns the state name used in logs.
func (s CacheState) String() string {
	switch s {
	case CacheMiss:
		return "miss"
	case CachePending:
		return "pending"
	case CacheReady:
		return "ready"
	default:
		return fmt.Sprintf("CacheState(%d)", int(s))
	}
}

// Flight is an in-flight computation that waiters attach to.
type Flight struct {
	done     chan struct{}
	response APIResponse
	err      error
}

func newFlight() *Flight {
	return &Flight{done: make(chan struct{})}
}

// Done is closed once the flight has a result.
func (f *Flight) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the flight finishes or ctx ends. The returned response is
// the shared value; callers pick their own cached flag with WithCached.
func (f *Flight) Wait(ctx context.Context) (APIResponse, error) {
	select {
	case <-f.done:
		return f.response, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRequestTimeout, ctx.Err())
	}
}

// CacheLookup is the result of ResponseCache.Lookup.
type CacheLookup struct {
	State CacheState
	// Response is set for CacheReady and always carries cached=true.
	Response APIResponse
	// Flight is set for CachePending.
	Flight *Flight
}

// ResponseCache maps fingerprints to completed responses or in-flight computations.
// Ready entries are evicted least-recently-used once capacity is reached;
// pending entries are never evicted.
type ResponseCache struct {
	mu      sync.Mutex
	ready   *lru.Cache[Fingerprint, APIResponse]
	pending map[Fingerprint]*Flight
}

// NewResponseCache creates a cache holding at most capacity ready responses.
func NewResponseCache(capacity int) (*ResponseCache, error) {
	ready, err := lru.New[Fingerprint, APIResponse](capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: cache capacity %d: %w", ErrConfiguration, capacity, err)
	}

	return &ResponseCache{
		mu:      sync.Mutex{},
		ready:   ready,
		pending: make(map[Fingerprint]*Flight),
	}, nil
}

// Lookup reports the state of a fingerprint.
func (c *ResponseCache) Lookup(fp Fingerprint) CacheLookup {
	c.mu.Lock()
	flight, pending := c.pending[fp]
	c.mu.Unlock()

	if pending {
		return CacheLookup{State: CachePending, Response: nil, Flight: flight}
	}

	// A fingerprint completing in between is reported ready; one claimed in
	// between is reported missing and loses the BeginPending race.
	if response, ok := c.ReadCachedCopy(fp); ok {
		return CacheLookup{State: CacheReady, Response: response, Flight: nil}
	}

	return CacheLookup{State: CacheMiss, Response: nil, Flight: nil}
}

// BeginPending claims a missing fingerprint. It returns false when the
// fingerprint is already pending or ready; the caller must look it up again.
func (c *ResponseCache) BeginPending(fp Fingerprint) (*Flight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[fp]; ok {
		return nil, false
	}
	if c.ready.Contains(fp) {
		return nil, false
	}

	flight := newFlight()
	c.pending[fp] = flight
	return flight, true
}

// Complete publishes the response for a pending fingerprint and releases its
// waiters. It is a no-op returning false if the fingerprint is not pending.
func (c *ResponseCache) Complete(fp Fingerprint, response APIResponse) bool {
	if response == nil {
		return c.Fail(fp, ErrGeneration)
	}

	c.mu.Lock()
	flight, ok := c.pending[fp]
	if !ok {
		c.mu.Unlock()
		return false
	}

	stored := response.WithCached(false)
	c.ready.Add(fp, stored)
	delete(c.pending, fp)
	c.mu.Unlock()

	flight.response = stored
	close(flight.done)
	return true
}

// Fail releases the waiters of a pending fingerprint with err. Nothing is
// cached, so the next request for the fingerprint computes again.
func (c *ResponseCache) Fail(fp Fingerprint, err error) bool {
	c.mu.Lock()
	flight, ok := c.pending[fp]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, fp)
	c.mu.Unlock()

	flight.err = err
	close(flight.done)
	return true
}

// ReadCachedCopy returns a ready response with cached set.
func (c *ResponseCache) ReadCachedCopy(fp Fingerprint) (APIResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	response, ok := c.ready.Get(fp)
	if !ok {
		return nil, false
	}
	return response.WithCached(true), true
}

// Len returns the number of ready responses.
func (c *ResponseCache) Len() int {
	return c.ready.Len()
}

// PendingLen returns the number of in-flight fingerprints.
func (c *ResponseCache) PendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
