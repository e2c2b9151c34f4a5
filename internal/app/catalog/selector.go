// Package catalog holds the fixed set of upstream models and the single
// process-wide selection among them.
package catalog

import (
	"fmt"
	"slices"
	"sync"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// Selector is the global ModelSelection. Every conversation's next turn
// uses whatever Current returns at dispatch time.
type Selector struct {
	mu      sync.RWMutex
	models  []string
	current string
}

// NewSelector builds a selector over models. initial must be a catalog
// member; an empty initial selects models[0].
func NewSelector(models []string, initial string) (*Selector, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}
	if initial == "" {
		initial = models[0]
	}
	if !slices.Contains(models, initial) {
		return nil, fmt.Errorf("initial model %q: %w", initial, domain.ErrInvalidModel)
	}

	return &Selector{
		models:  slices.Clone(models),
		current: initial,
	}, nil
}

func (s *Selector) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Catalog returns the selectable models in their configured order.
func (s *Selector) Catalog() []string {
	return slices.Clone(s.models)
}

// Set replaces the selection when candidate is in the catalog. Otherwise
// the selection is left as it was and ErrInvalidModel is returned.
func (s *Selector) Set(candidate string) error {
	if !slices.Contains(s.models, candidate) {
		return fmt.Errorf("model %q: %w", candidate, domain.ErrInvalidModel)
	}

	s.mu.Lock()
	s.current = candidate
	s.mu.Unlock()
	return nil
}
