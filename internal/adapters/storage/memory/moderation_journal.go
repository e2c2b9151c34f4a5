package memory

import (
	"sync"
	"time"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

const defaultJournalCapacity = 1000

// ModerationJournal is an in-memory domain.ModerationJournal. It is NOT
// persistent; once capacity is reached the oldest entries are dropped.
type ModerationJournal struct {
	mu       sync.RWMutex
	entries  []*domain.BlockedAttempt
	capacity int
	now      func() time.Time
}

// NewModerationJournal creates a journal holding at most capacity entries.
// capacity <= 0 uses the default.
func NewModerationJournal(capacity int) *ModerationJournal {
	if capacity <= 0 {
		capacity = defaultJournalCapacity
	}
	return &ModerationJournal{
		capacity: capacity,
		now:      time.Now,
	}
}

func (j *ModerationJournal) Record(event *domain.BlockedAttempt) error {
	if event == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	stored := *event
	if stored.At.IsZero() {
		stored.At = j.now()
	}

	j.entries = append(j.entries, &stored)
	if over := len(j.entries) - j.capacity; over > 0 {
		j.entries = append(j.entries[:0:0], j.entries[over:]...)
	}

	return nil
}

// Recent returns copies of the last `limit` entries, oldest first.
// If limit <= 0, returns all.
func (j *ModerationJournal) Recent(limit int) ([]*domain.BlockedAttempt, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > len(j.entries) {
		limit = len(j.entries)
	}

	selected := j.entries[len(j.entries)-limit:]
	out := make([]*domain.BlockedAttempt, 0, len(selected))
	for _, e := range selected {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}
