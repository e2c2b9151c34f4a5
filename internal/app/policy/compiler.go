// Package policy turns the rule set into the system instruction every
// conversation starts with.
package policy

import (
	"strings"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// Preamble opens every compiled instruction.
const Preamble = "You are an AI assistant following these rules:\n"

const bullet = "- "

// Compile renders rules as a bulleted list under the preamble, one rule
// per line, in order. Block rules are listed verbatim alongside guidelines.
// The output depends only on the rule texts.
func Compile(rules []domain.Rule) string {
	var b strings.Builder
	b.WriteString(Preamble)
	for i, r := range rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(bullet)
		b.WriteString(r.Text)
	}
	return b.String()
}

// Classify is domain.ParseRule under the compiler's name.
func Classify(text string) domain.Rule {
	return domain.ParseRule(text)
}
