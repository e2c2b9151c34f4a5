package domain

import "time"

// BlockedAttempt is the moderation journal's record of a message the gate
// refused. The conversation history itself only ever sees the refusal.
type BlockedAttempt struct {
	ConversationID ConversationID `json:"chat_id"`
	Text           string         `json:"text"`
	Rule           string         `json:"rule"`
	Phrase         string         `json:"phrase"`
	At             time.Time      `json:"at"`
}
