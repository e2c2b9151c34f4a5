package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/PabloGalante/vetra-proxy/internal/adapters/llm"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

type mockGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func TestVertex_MapsHistoryAndConfig(t *testing.T) {
	var (
		gotModel    string
		gotContents []*genai.Content
		gotConfig   *genai.GenerateContentConfig
	)

	gen := &mockGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return textResponse("hi there"), nil
		},
	}

	client := llm.NewVertexClientWithGenerator(gen, llm.VertexConfig{
		Temperature:  0.7,
		MaxTokens:    1000,
		ModelAliases: map[string]string{"gemini": "gemini-2.5-flash"},
	})

	text, err := client.Complete(context.Background(), domain.CompletionRequest{
		Model: "gemini",
		Messages: []domain.Message{
			domain.SystemMessage("rules"),
			domain.UserMessage("hello"),
			domain.AssistantMessage("hey"),
			domain.UserMessage("again"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)

	assert.Equal(t, "gemini-2.5-flash", gotModel)
	require.Len(t, gotContents, 3)
	assert.Equal(t, string(genai.RoleUser), gotContents[0].Role)
	assert.Equal(t, string(genai.RoleModel), gotContents[1].Role)
	assert.Equal(t, "again", gotContents[2].Parts[0].Text)

	require.NotNil(t, gotConfig.SystemInstruction)
	assert.Equal(t, "rules", gotConfig.SystemInstruction.Parts[0].Text)
	require.NotNil(t, gotConfig.Temperature)
	assert.InDelta(t, 0.7, *gotConfig.Temperature, 1e-6)
	assert.Equal(t, int32(1000), gotConfig.MaxOutputTokens)
}

func TestVertex_UnaliasedModelPassesThrough(t *testing.T) {
	var gotModel string
	gen := &mockGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			return textResponse("ok"), nil
		},
	}

	client := llm.NewVertexClientWithGenerator(gen, llm.VertexConfig{})
	_, err := client.Complete(context.Background(), domain.CompletionRequest{Model: "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", gotModel)
}

func TestVertex_Failures(t *testing.T) {
	tests := []struct {
		name string
		res  *genai.GenerateContentResponse
		err  error
		want domain.DispatchErrorKind
	}{
		{"sdk error", nil, errors.New("deadline exceeded"), domain.DispatchTransport},
		{"no candidates", &genai.GenerateContentResponse{}, nil, domain.DispatchEmpty},
		{"empty text", textResponse(""), nil, domain.DispatchEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return tt.res, tt.err
				},
			}
			client := llm.NewVertexClientWithGenerator(gen, llm.VertexConfig{})

			_, err := client.Complete(context.Background(), domain.CompletionRequest{
				Model:    "gemini",
				Messages: []domain.Message{domain.UserMessage("hi")},
			})
			assert.Equal(t, tt.want, dispatchKind(t, err))
		})
	}
}
