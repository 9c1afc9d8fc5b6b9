package services

import (
	"context"
	"fmt"

	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/conversation"
)

// LLMGenerator adapts an LLMService to the compaction pipeline's
// Generator capability. Instructions ride as the system message and the
// segment transcript as the user message, so any chat-shaped provider
// can summarize.
type LLMGenerator struct {
	llm LLMService
}

// Ensure LLMGenerator implements the compaction Generator capability
var _ conversation.Generator = (*LLMGenerator)(nil)

func NewLLMGenerator(llm LLMService) *LLMGenerator {
	return &LLMGenerator{llm: llm}
}

func (g *LLMGenerator) Generate(ctx context.Context, instructions string, content string) (string, error) {
	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: instructions},
		{Role: chat.ChatRolePlayer, Content: content},
	}

	summary, err := g.llm.GenerateResponse(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return summary, nil
}
