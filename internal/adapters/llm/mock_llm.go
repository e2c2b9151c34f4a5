package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/vetra-proxy/internal/domain"
)

// MockLLM answers locally without any network call. Useful for dev.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("[%s] You said %q.", req.Model, last), nil
}
