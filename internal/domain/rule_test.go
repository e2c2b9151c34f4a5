package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		kind   domain.RuleKind
		phrase string
	}{
		{"guideline", "Be polite", domain.RuleGuideline, ""},
		{"block", "Block: refund", domain.RuleBlock, "refund"},
		{"block without space", "Block:Refund ", domain.RuleBlock, "refund"},
		{"prefix is case sensitive", "block: refund", domain.RuleGuideline, ""},
		{"prefix must lead", " Block: refund", domain.RuleGuideline, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.ParseRule(tt.text)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.text, r.Text)
			assert.Equal(t, tt.phrase, r.Phrase)
		})
	}
}

func TestRuleTexts_PreservesOrder(t *testing.T) {
	rules := []domain.Rule{
		domain.ParseRule("b"),
		domain.ParseRule("Block: x"),
		domain.ParseRule("a"),
	}
	assert.Equal(t, []string{"b", "Block: x", "a"}, domain.RuleTexts(rules))
}
