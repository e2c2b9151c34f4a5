package domain

import "context"

// CompletionClient performs one upstream completion call per turn.
// A nil error means text is the assistant reply. Any failure is returned
// as a *DispatchError; implementations never retry.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is what a turn sends upstream: the full history,
// system message first, and the globally selected model.
type CompletionRequest struct {
	Model    string
	Messages []Message
}

// RuleStore holds the ordered rule set.
type RuleStore interface {
	List() []Rule
	Append(text string) []Rule
	RemoveAt(index int) ([]Rule, error)
}

// ConversationStore owns every conversation's history.
type ConversationStore interface {
	GetOrCreate(id ConversationID, instruction string) (ConversationID, bool)
	Append(id ConversationID, msg Message) error
	RewriteSystemMessage(instruction string)
	List() []ConversationID
	Get(id ConversationID) ([]Message, error)
	// LockTurn serializes whole turns on one conversation. The returned
	// func releases the lock.
	LockTurn(id ConversationID) (func(), error)
}

// ModerationJournal records blocked attempts outside conversation history.
type ModerationJournal interface {
	Record(event *BlockedAttempt) error
	Recent(limit int) ([]*BlockedAttempt, error)
}
