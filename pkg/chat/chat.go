package chat

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/pkg/travel"
)

// TurnRequest represents a single turn of play submitted by the player
// to the dmengine api.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"` // Unique ID for the game session
	Message   string    `json:"message"`
}

// TurnResponse represents the narrator's reply for one turn.
// Travel carries the path validation outcome when the narration
// included a travel directive.
type TurnResponse struct {
	SessionID uuid.UUID          `json:"session_id,omitempty"`
	Message   string             `json:"message,omitempty"`
	Location  string             `json:"location,omitempty"`
	Travel    *travel.Validation `json:"travel,omitempty"`
	History   []ChatMessage      `json:"history,omitempty"`
}

const (
	ChatRolePlayer   = "user"      // Player
	ChatRoleNarrator = "assistant" // Dungeon master
	ChatRoleSystem   = "system"    // Engine markers and instructions
)

// Transition marks the boundary between two conversation segments. The game
// loop inserts one whenever the party moves to a new location.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ChatMessage represents a single turn record in the conversation log.
// The role/content shape matches what LLM chat APIs expect, so log entries
// can be fed back into prompts without conversion.
type ChatMessage struct {
	Role       string      `json:"role"` // "user", "assistant", "system"
	Content    string      `json:"content"`
	Transition *Transition `json:"transition,omitempty"`
}

// IsTransition reports whether this message is a location-transition marker.
func (m ChatMessage) IsTransition() bool {
	return m.Transition != nil
}

// TransitionMessage builds the system marker inserted between segments.
func TransitionMessage(from, to string) ChatMessage {
	return ChatMessage{
		Role:       ChatRoleSystem,
		Content:    fmt.Sprintf("The party travels from %s to %s.", from, to),
		Transition: &Transition{From: from, To: to},
	}
}

func (tr *TurnRequest) Validate() error {
	if tr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if tr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	return nil
}
