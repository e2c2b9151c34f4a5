package memory

import (
	"fmt"
	"sync"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// RuleStore is an in-memory, ordered domain.RuleStore. Rules have no
// identity beyond their position.
type RuleStore struct {
	mu    sync.RWMutex
	rules []domain.Rule
}

// NewRuleStore creates a store seeded with the given rule texts.
func NewRuleStore(seed ...string) *RuleStore {
	s := &RuleStore{rules: make([]domain.Rule, 0, len(seed))}
	for _, text := range seed {
		s.rules = append(s.rules, domain.ParseRule(text))
	}
	return s
}

func (s *RuleStore) List() []domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *RuleStore) Append(text string) []domain.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = append(s.rules, domain.ParseRule(text))
	return s.snapshot()
}

// RemoveAt deletes the rule at index; every later rule shifts down by one.
func (s *RuleStore) RemoveAt(index int) ([]domain.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.rules) {
		return nil, fmt.Errorf("remove rule %d of %d: %w", index, len(s.rules), domain.ErrRuleOutOfRange)
	}

	s.rules = append(s.rules[:index], s.rules[index+1:]...)
	return s.snapshot(), nil
}

// snapshot must be called with mu held.
func (s *RuleStore) snapshot() []domain.Rule {
	out := make([]domain.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}
