package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/PabloGalante/vetra-proxy/internal/adapters/llm"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	p := llm.BuildPrompt([]domain.Message{
		domain.SystemMessage("rules"),
		domain.UserMessage("hello"),
		domain.AssistantMessage("hi"),
	})

	assert.Equal(t, "rules", p.System)
	require.Len(t, p.Contents, 2)
	assert.Equal(t, string(genai.RoleUser), p.Contents[0].Role)
	assert.Equal(t, "hello", p.Contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), p.Contents[1].Role)
}

func TestBuildPrompt_NoSystem(t *testing.T) {
	p := llm.BuildPrompt([]domain.Message{domain.UserMessage("hello")})
	assert.Empty(t, p.System)
	assert.Len(t, p.Contents, 1)
}

func TestBuildPrompt_SkipsLeadingAssistantTurns(t *testing.T) {
	// A blocked first message leaves only the refusal ahead of the next user turn.
	p := llm.BuildPrompt([]domain.Message{
		domain.SystemMessage("rules"),
		domain.AssistantMessage(domain.RefusalText),
		domain.UserMessage("hello"),
		domain.AssistantMessage("hi"),
		domain.AssistantMessage(domain.RefusalText),
	})

	require.Len(t, p.Contents, 3)
	assert.Equal(t, string(genai.RoleUser), p.Contents[0].Role)
	assert.Equal(t, "hello", p.Contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleModel), p.Contents[1].Role)
	assert.Equal(t, string(genai.RoleModel), p.Contents[2].Role)
}
