package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

// ContentGenerator is the slice of the genai SDK the Vertex client uses.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type VertexConfig struct {
	Project     string
	Location    string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	// ModelAliases maps catalog ids to Vertex model names. Ids without an
	// alias are sent as-is.
	ModelAliases map[string]string
}

type VertexClient struct {
	models      ContentGenerator
	aliases     map[string]string
	timeout     time.Duration
	temperature float32
	maxTokens   int32
}

// NewVertexClient creates a CompletionClient based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex backend needs both a GCP project and location")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return NewVertexClientWithGenerator(client.Models, cfg), nil
}

// NewVertexClientWithGenerator wires a VertexClient to any ContentGenerator.
func NewVertexClientWithGenerator(models ContentGenerator, cfg VertexConfig) *VertexClient {
	return &VertexClient{
		models:      models,
		aliases:     cfg.ModelAliases,
		timeout:     cfg.Timeout,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}
}

func (v *VertexClient) modelName(id string) string {
	if alias, ok := v.aliases[id]; ok && alias != "" {
		return alias
	}
	return id
}

// Complete implements domain.CompletionClient using Vertex AI.
func (v *VertexClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model := v.modelName(req.Model)
	log := observability.LoggerFromContext(ctx).With("model", model)

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(req.Messages)

	temp := v.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: v.maxTokens,
	}
	if prompt.System != "" {
		// Vertex examples pass the system instruction with the user role.
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	res, err := v.models.GenerateContent(ctx, model, prompt.Contents, cfg)
	if err != nil {
		log.Error("vertex generate content failed", "error", err)
		return "", &domain.DispatchError{Kind: domain.DispatchTransport, Err: err}
	}

	if res == nil || len(res.Candidates) == 0 {
		log.Warn("vertex returned no candidates")
		return "", &domain.DispatchError{Kind: domain.DispatchEmpty}
	}

	text := res.Text()
	if text == "" {
		log.Warn("vertex returned empty text")
		return "", &domain.DispatchError{Kind: domain.DispatchEmpty}
	}

	return text, nil
}
