package llm

import (
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// Prompt is a history split the way Gemini wants it: system text goes to
// SystemInstruction, the remaining turns become contents.
type Prompt struct {
	System   string
	Contents []*genai.Content
}

// BuildPrompt converts a conversation history into a Prompt. System
// messages are joined in order; user and assistant turns keep their order.
//
// Gemini rejects contents that open with a model turn. A history can start
// with an assistant message when the first user message was blocked (only
// the refusal is stored), so assistant turns before the first user turn are
// dropped.
func BuildPrompt(history []domain.Message) Prompt {
	var system []string
	var contents []*genai.Content

	for _, m := range history {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			if len(contents) == 0 {
				continue
			}
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	return Prompt{
		System:   strings.Join(system, "\n\n"),
		Contents: contents,
	}
}
