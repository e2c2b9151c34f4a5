package moderation

import (
	"context"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

const defaultRecentLimit = 20

// Journal holds the logic of recording and reading blocked attempts.
type Journal struct {
	store domain.ModerationJournal
}

// NewJournal creates a journal service from a ModerationJournal.
// A nil store turns recording into a no-op.
func NewJournal(store domain.ModerationJournal) *Journal {
	return &Journal{store: store}
}

// Record stores a blocked attempt. Failures are logged, not returned: the
// refusal still goes out to the user.
func (j *Journal) Record(ctx context.Context, id domain.ConversationID, text string, v Verdict) {
	if j == nil || j.store == nil {
		return
	}

	err := j.store.Record(&domain.BlockedAttempt{
		ConversationID: id,
		Text:           text,
		Rule:           v.Rule.Text,
		Phrase:         v.Rule.Phrase,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to record blocked attempt",
			"chat_id", id,
			"error", err,
		)
	}
}

// Recent returns the last `limit` blocked attempts.
// If limit <= 0, a reasonable default value is used.
func (j *Journal) Recent(ctx context.Context, limit int) ([]*domain.BlockedAttempt, error) {
	if j == nil || j.store == nil {
		return []*domain.BlockedAttempt{}, nil
	}

	if limit <= 0 {
		limit = defaultRecentLimit
	}

	return j.store.Recent(limit)
}
