package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aqagent/aqagent/internal/agent"
)

// MockProvider is a deterministic, offline LLMProvider variant used for
// development and automated testing, grounded on
// original_source/core/providers/mock_provider.py's MockProvider: it
// never calls an external service and always returns a stable,
// synthetic response echoing the user's message.
type MockProvider struct {
	defaultModel string
}

var _ agent.LLMProvider = (*MockProvider)(nil)

// NewMockProvider returns a MockProvider. defaultModel is reported by
// Models() and echoed in CompletionChunk.
func NewMockProvider(defaultModel string) *MockProvider {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = "mock-v1"
	}
	return &MockProvider{defaultModel: defaultModel}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Models reports the single synthetic model this provider exposes.
func (p *MockProvider) Models() []agent.Model {
	return []agent.Model{{ID: p.defaultModel, Name: "Mock (offline)", ContextSize: 1_000_000}}
}

// SupportsTools is false: the mock provider never emits native tool
// calls, matching the Python original's get_tool_definitions() returning
// an empty list.
func (p *MockProvider) SupportsTools() bool {
	return false
}

// Complete synchronously synthesizes a single deterministic chunk and
// returns it over a closed channel — there is nothing to stream.
func (p *MockProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if req == nil {
		return nil, fmt.Errorf("mock provider: request is nil")
	}

	userMessage := lastUserMessage(req.Messages)
	text := fmt.Sprintf(
		"(Mock AI) Running in offline test mode. I can still help with air quality questions, "+
			"forecasts, and comparisons. To use a real model, configure a Cloud-LLM or Local-LLM provider.\n\n"+
			"You asked: %s",
		strings.TrimSpace(userMessage),
	)

	chunks := make(chan *agent.CompletionChunk, 2)
	chunks <- &agent.CompletionChunk{Text: text}
	chunks <- &agent.CompletionChunk{
		Done:         true,
		InputTokens:  len(userMessage) / 4,
		OutputTokens: len(text) / 4,
	}
	close(chunks)
	return chunks, nil
}

func lastUserMessage(messages []agent.CompletionMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}
