package services

import (
	"context"
	"sync"

	"github.com/campaignforge/dmengine/pkg/chat"
)

// MockLLMAPI is a mock implementation of LLMService for testing
type MockLLMAPI struct {
	InitModelFunc        func(ctx context.Context, modelName string) error
	GenerateResponseFunc func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	IsModelReadyFunc     func(ctx context.Context, modelName string) (bool, error)

	// Track calls for testing
	InitModelCalls        []string
	GenerateResponseCalls []GenerateResponseCall
	IsModelReadyCalls     []string

	mu sync.Mutex // protects all fields above
}

type GenerateResponseCall struct {
	Messages []chat.ChatMessage
}

// Ensure MockLLMAPI implements LLMService interface
var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls:        make([]string, 0),
		GenerateResponseCalls: make([]GenerateResponseCall, 0),
		IsModelReadyCalls:     make([]string, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateResponse mocks narrator response generation
func (m *MockLLMAPI) GenerateResponse(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateResponseCalls = append(m.GenerateResponseCalls, GenerateResponseCall{
		Messages: messages,
	})

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, messages)
	}
	return "Mock narration.", nil
}

// IsModelReady mocks model readiness check
func (m *MockLLMAPI) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IsModelReadyCalls = append(m.IsModelReadyCalls, modelName)

	if m.IsModelReadyFunc != nil {
		return m.IsModelReadyFunc(ctx, modelName)
	}
	return true, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateResponseCalls = make([]GenerateResponseCall, 0)
	m.IsModelReadyCalls = make([]string, 0)
}
