package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// conversation pairs a history with its two locks: turnMu orders whole
// turns (held across the upstream call), mu guards the slice itself.
type conversation struct {
	turnMu   sync.Mutex
	mu       sync.RWMutex
	messages []domain.Message
}

// ConversationStore is an in-memory domain.ConversationStore. Conversations
// live for the lifetime of the process.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[domain.ConversationID]*conversation
	order         []domain.ConversationID
	newID         func() domain.ConversationID
}

type ConversationStoreOption func(*ConversationStore)

// WithIDGenerator replaces the random id source. Tests only.
func WithIDGenerator(gen func() domain.ConversationID) ConversationStoreOption {
	return func(s *ConversationStore) {
		s.newID = gen
	}
}

func NewConversationStore(opts ...ConversationStoreOption) *ConversationStore {
	s := &ConversationStore{
		conversations: make(map[domain.ConversationID]*conversation),
		newID:         randomID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomID returns a version 4 UUID: 122 random bits from crypto/rand.
func randomID() domain.ConversationID {
	return domain.ConversationID(uuid.NewString())
}

// GetOrCreate returns id unchanged when it names a known conversation.
// Otherwise, including when id is empty, it mints a fresh id and starts a
// history holding a single system message.
func (s *ConversationStore) GetOrCreate(id domain.ConversationID, instruction string) (domain.ConversationID, bool) {
	if id != "" {
		s.mu.RLock()
		_, ok := s.conversations[id]
		s.mu.RUnlock()
		if ok {
			return id, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newID := s.newID()
	for {
		if _, taken := s.conversations[newID]; !taken {
			break
		}
		newID = s.newID()
	}

	s.conversations[newID] = &conversation{
		messages: []domain.Message{domain.SystemMessage(instruction)},
	}
	s.order = append(s.order, newID)

	return newID, true
}

func (s *ConversationStore) lookup(id domain.ConversationID) (*conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (s *ConversationStore) Append(id domain.ConversationID, msg domain.Message) error {
	c, err := s.lookup(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	return nil
}

// RewriteSystemMessage puts instruction at index 0 of every conversation,
// replacing an existing system message or inserting one in front.
func (s *ConversationStore) RewriteSystemMessage(instruction string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sys := domain.SystemMessage(instruction)
	for _, c := range s.conversations {
		c.mu.Lock()
		if len(c.messages) > 0 && c.messages[0].Role == domain.RoleSystem {
			c.messages[0] = sys
		} else {
			c.messages = append([]domain.Message{sys}, c.messages...)
		}
		c.mu.Unlock()
	}
}

// List returns conversation ids in creation order.
func (s *ConversationStore) List() []domain.ConversationID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConversationID, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of the conversation's history.
func (s *ConversationStore) Get(id domain.ConversationID) ([]domain.Message, error) {
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out, nil
}

func (s *ConversationStore) LockTurn(id domain.ConversationID) (func(), error) {
	c, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	c.turnMu.Lock()
	return c.turnMu.Unlock, nil
}
