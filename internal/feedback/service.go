package feedback

import (
	"context"
	"fmt"

	"github.com/davidbz/kiln/internal/observability"
)

// Service records and reports feedback.
type Service struct {
	store Store
}

// NewService creates a new feedback service (DI constructor).
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errNilStore
	}
	return &Service{store: store}, nil
}

// Record validates and counts one feedback report.
func (s *Service) Record(ctx context.Context, fb *Feedback) error {
	if err := fb.Validate(); err != nil {
		return err
	}

	logger := observability.FromContext(ctx)

	count, err := s.store.Increment(ctx, fb.Key())
	if err != nil {
		logger.Error("failed to record feedback", observability.Error(err))
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	logger.Info("feedback received",
		observability.Bool("success", *fb.Success),
		observability.String("key", fb.Key()),
		observability.Int64("count", count))

	return nil
}

// Counts returns every feedback counter.
func (s *Service) Counts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	return counts, nil
}
