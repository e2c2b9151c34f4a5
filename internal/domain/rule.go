package domain

import "strings"

// BlockPrefix marks a rule as a block rule. The match is case-sensitive.
const BlockPrefix = "Block:"

type RuleKind int

const (
	RuleGuideline RuleKind = iota
	RuleBlock
)

func (k RuleKind) String() string {
	if k == RuleBlock {
		return "block"
	}
	return "guideline"
}

// Rule is an administrator-authored policy line. The kind is decided once,
// when the rule is created, so screening never re-parses the text.
type Rule struct {
	Kind RuleKind
	// Text is the rule exactly as the administrator wrote it.
	Text string
	// Phrase is the forbidden phrase of a block rule, trimmed and
	// lower-cased. Empty for guidelines.
	Phrase string
}

// ParseRule classifies text as a block rule or a guideline.
func ParseRule(text string) Rule {
	if rest, ok := strings.CutPrefix(text, BlockPrefix); ok {
		return Rule{
			Kind:   RuleBlock,
			Text:   text,
			Phrase: strings.ToLower(strings.TrimSpace(rest)),
		}
	}
	return Rule{Kind: RuleGuideline, Text: text}
}

func (r Rule) IsBlock() bool {
	return r.Kind == RuleBlock
}

// RuleTexts returns the raw text of every rule, in order.
func RuleTexts(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Text)
	}
	return out
}
