// Package moderation screens inbound user text against block rules and
// keeps a journal of what it refused.
package moderation

import (
	"strings"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

type Outcome int

const (
	Allowed Outcome = iota
	Blocked
)

func (o Outcome) String() string {
	if o == Blocked {
		return "blocked"
	}
	return "allowed"
}

// Verdict is the result of screening one message. Rule is the block rule
// that matched and is only set when Outcome is Blocked.
type Verdict struct {
	Outcome Outcome
	Rule    domain.Rule
}

func (v Verdict) Blocked() bool {
	return v.Outcome == Blocked
}

// Screen blocks text when any block rule's phrase occurs in it, ignoring
// case. The first matching rule wins; guidelines are skipped.
func Screen(text string, rules []domain.Rule) Verdict {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if !r.IsBlock() {
			continue
		}
		if strings.Contains(lower, r.Phrase) {
			return Verdict{Outcome: Blocked, Rule: r}
		}
	}
	return Verdict{Outcome: Allowed}
}
