package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/vetra-proxy/internal/adapters/llm"
	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

func newOpenAI(t *testing.T, handler http.HandlerFunc) *llm.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return llm.NewOpenAIClient(llm.OpenAIConfig{
		Endpoint:    srv.URL + "/chat/completions",
		APIKey:      "sigma",
		Timeout:     5 * time.Second,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
}

func history() []domain.Message {
	return []domain.Message{
		domain.SystemMessage("You are an AI assistant following these rules:\n- Be polite"),
		domain.UserMessage("hello"),
	}
}

func dispatchKind(t *testing.T, err error) domain.DispatchErrorKind {
	t.Helper()
	var de *domain.DispatchError
	require.True(t, errors.As(err, &de), "expected DispatchError, got %v", err)
	return de.Kind
}

func TestOpenAI_SendsFixedPayload(t *testing.T) {
	var got map[string]any
	var auth string

	client := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	})

	text, err := client.Complete(context.Background(), domain.CompletionRequest{
		Model:    "mistral-large-latest",
		Messages: history(),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", text)

	assert.Equal(t, "Bearer sigma", auth)
	assert.Equal(t, "mistral-large-latest", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	assert.InDelta(t, 1000, got["max_tokens"], 1e-9)

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "You are an AI assistant following these rules:\n- Be polite"}, msgs[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "hello"}, msgs[1])
}

func TestOpenAI_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.DispatchErrorKind
	}{
		{"empty choices", `{"choices":[]}`, domain.DispatchEmpty},
		{"missing choices", `{"error":{"message":"quota"}}`, domain.DispatchEmpty},
		{"not json", `<html>bad gateway</html>`, domain.DispatchMalformed},
		{"choice without message", `{"choices":[{"index":0}]}`, domain.DispatchMalformed},
		{"null content", `{"choices":[{"message":{"content":null}}]}`, domain.DispatchMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			text, err := client.Complete(context.Background(), domain.CompletionRequest{Model: "m", Messages: history()})
			assert.Empty(t, text)
			assert.Equal(t, tt.want, dispatchKind(t, err))
			assert.Equal(t, domain.NoResponseText, domain.ReplyFor(text, err))
		})
	}
}

func TestOpenAI_NonOKStatusStillDecoded(t *testing.T) {
	client := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"overloaded"}`))
	})

	_, err := client.Complete(context.Background(), domain.CompletionRequest{Model: "m", Messages: history()})
	assert.Equal(t, domain.DispatchEmpty, dispatchKind(t, err))
}

func TestOpenAI_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{Endpoint: endpoint, Timeout: time.Second})

	_, err := client.Complete(context.Background(), domain.CompletionRequest{Model: "m", Messages: history()})
	assert.Equal(t, domain.DispatchTransport, dispatchKind(t, err))
	assert.Contains(t, domain.ReplyFor("", err), domain.TransportErrorPrefix)
}

func TestOpenAI_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := llm.NewOpenAIClient(llm.OpenAIConfig{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})

	_, err := client.Complete(context.Background(), domain.CompletionRequest{Model: "m", Messages: history()})
	assert.Equal(t, domain.DispatchTransport, dispatchKind(t, err))
}
