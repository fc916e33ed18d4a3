package generator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/davidbz/kiln/internal/domain"
)

// Registry implements the domain.GeneratorRegistry interface.
type Registry struct {
	mu         sync.RWMutex
	generators map[domain.CompletionType]domain.Generator
}

// NewRegistry creates a new generator registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:         sync.RWMutex{},
		generators: make(map[domain.CompletionType]domain.Generator),
	}
}

// Register adds a generator to the registry.
func (r *Registry) Register(_ context.Context, gen domain.Generator) error {
	if gen == nil {
		return errors.New("generator cannot be nil")
	}

	completionType := gen.CompletionType()
	if completionType == "" {
		return errors.New("completion type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[completionType]; exists {
		return fmt.Errorf("generator for %s already registered", completionType)
	}

	r.generators[completionType] = gen

	return nil
}

// Get retrieves the generator for a completion type.
func (r *Registry) Get(_ context.Context, completionType domain.CompletionType) (domain.Generator, error) {
	if completionType == "" {
		return nil, errors.New("completion type cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, exists := r.generators[completionType]
	if !exists {
		return nil, fmt.Errorf("generator for %s not found", completionType)
	}

	return gen, nil
}

// List returns the registered completion types in a stable order.
func (r *Registry) List(_ context.Context) ([]domain.CompletionType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.CompletionType, 0, len(r.generators))
	for completionType := range r.generators {
		types = append(types, completionType)
	}
	slices.Sort(types)

	return types, nil
}
