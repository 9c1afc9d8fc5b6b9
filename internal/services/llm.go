package services

import (
	"context"

	"github.com/campaignforge/dmengine/pkg/chat"
)

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateResponse generates a narrator response using the LLM
	GenerateResponse(ctx context.Context, messages []chat.ChatMessage) (string, error)

	// IsModelReady checks if the specified model is ready for use
	IsModelReady(ctx context.Context, modelName string) (bool, error)
}
