package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
	"github.com/PabloGalante/vetra-proxy/internal/observability"
)

// Upper bound on how much of an upstream body we are willing to read.
const maxResponseBytes = 4 << 20

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	Endpoint    string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	// HTTPClient overrides the default client. Its Timeout is replaced
	// by Timeout when Timeout > 0.
	HTTPClient *http.Client
}

// OpenAIClient implements domain.CompletionClient against any endpoint
// speaking the OpenAI chat completions wire format. It makes exactly one
// request per call.
type OpenAIClient struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	temperature float64
	maxTokens   int
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		hc = &clone
	}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}

	return &OpenAIClient{
		httpClient:  hc,
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements domain.CompletionClient.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	log := observability.LoggerFromContext(ctx).With(
		"model", req.Model,
		"messages", len(req.Messages),
	)

	wire := chatRequest{
		Model:       req.Model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", &domain.DispatchError{Kind: domain.DispatchTransport, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.DispatchError{Kind: domain.DispatchTransport, Err: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error("upstream request failed", "error", err)
		return "", &domain.DispatchError{Kind: domain.DispatchTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Error("reading upstream response failed", "error", err)
		return "", &domain.DispatchError{Kind: domain.DispatchTransport, Err: fmt.Errorf("reading response: %w", err)}
	}

	log = log.With("status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())

	switch out := decodeCompletion(data).(type) {
	case completed:
		log.Info("upstream completion received")
		return out.text, nil
	case emptyCompletion:
		log.Warn("upstream returned no choices")
		return "", &domain.DispatchError{Kind: domain.DispatchEmpty}
	case malformedCompletion:
		log.Warn("upstream response malformed", "error", out.err)
		return "", &domain.DispatchError{Kind: domain.DispatchMalformed, Err: out.err}
	default:
		return "", &domain.DispatchError{Kind: domain.DispatchMalformed, Err: errors.New("unknown completion outcome")}
	}
}

// completionOutcome is the decoded shape of an upstream body:
// completed, emptyCompletion or malformedCompletion.
type completionOutcome interface {
	outcome()
}

type completed struct{ text string }

type emptyCompletion struct{}

type malformedCompletion struct{ err error }

func (completed) outcome()           {}
func (emptyCompletion) outcome()     {}
func (malformedCompletion) outcome() {}

// decodeCompletion classifies an upstream body exactly once. A body that
// decodes but carries no choices is empty; one that does not decode, or
// whose first choice has no message content, is malformed.
func decodeCompletion(data []byte) completionOutcome {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return malformedCompletion{err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return emptyCompletion{}
	}

	first := resp.Choices[0]
	if first.Message == nil || first.Message.Content == nil {
		return malformedCompletion{err: errors.New("first choice has no message content")}
	}

	return completed{text: *first.Message.Content}
}
