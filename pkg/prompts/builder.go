package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/session"
)

// Builder constructs the message array for one narrator turn using a
// fluent interface. It separates prompt assembly from session state.
type Builder struct {
	session      *session.GameSession
	userMessage  string
	rejection    string
	historyLimit int
	messages     []chat.ChatMessage
}

// worldState is the machine-readable block the narrator sees each turn.
type worldState struct {
	Location    string            `json:"location"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Exits       map[string]string `json:"exits,omitempty"`
	Flags       map[string]bool   `json:"flags,omitempty"`
	Inventory   []string          `json:"inventory,omitempty"`
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: 20, // default history window
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithSession sets the game session (owns the graph and the log).
func (b *Builder) WithSession(s *session.GameSession) *Builder {
	b.session = s
	return b
}

// WithUserMessage sets the player's message for this turn.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithRejection adds a recovery instruction after the engine rejected
// the narrator's previous travel directive.
func (b *Builder) WithRejection(diagnostic string) *Builder {
	b.rejection = diagnostic
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM
// consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.session == nil {
		return nil, fmt.Errorf("session is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	b.addHistory()
	if b.rejection != "" {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRoleSystem,
			Content: fmt.Sprintf(RejectionPrompt, b.rejection),
		})
	}
	if b.userMessage != "" {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRolePlayer,
			Content: b.userMessage,
		})
	}
	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	state := worldState{
		Location:  b.session.Location,
		Flags:     b.session.Flags,
		Inventory: b.session.Inventory,
	}
	if g := b.session.Graph(); g != nil && b.session.Location != "" {
		loc, err := g.Location(b.session.Location)
		if err != nil {
			return fmt.Errorf("session location missing from graph: %w", err)
		}
		state.Name = loc.Name
		state.Description = loc.Description
		state.Exits = loc.Exits
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal world state: %w", err)
	}

	content := BaseSystemPrompt + "\n\n" + WorldStatePrompt + "\n" + string(stateJSON)
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: content,
	})
	return nil
}

// addHistory adds windowed conversation history. Transition markers are
// skipped; the narrator sees travel through the world state block, not
// through engine bookkeeping.
func (b *Builder) addHistory() {
	turns := b.session.Log.Turns
	history := make([]chat.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		if turn.IsTransition() {
			continue
		}
		history = append(history, chat.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	b.messages = append(b.messages, history...)
}
