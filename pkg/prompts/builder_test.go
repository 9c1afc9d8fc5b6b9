package prompts

import (
	"strings"
	"testing"

	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/world"
)

func testSession(t *testing.T) *session.GameSession {
	t.Helper()

	w := &world.World{
		Module: "test.json",
		Areas: []world.Area{{
			ID: "town",
			Locations: []world.Location{
				{ID: "T01", Name: "Town Square", Description: "A cobbled square.", Exits: map[string]string{"east": "T02"}},
				{ID: "T02", Name: "East Gate"},
			},
		}},
	}

	s := session.New("test.json")
	if err := s.LoadWorld(w, nil); err != nil {
		t.Fatalf("LoadWorld failed: %v", err)
	}
	s.Location = "T01"
	return s
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.historyLimit != 20 {
		t.Errorf("Expected default history limit of 20, got %d", builder.historyLimit)
	}
	if builder.messages == nil {
		t.Error("Expected messages slice to be initialized")
	}
}

func TestBuilder_RequiresSession(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Error("Expected error when building without a session")
	}
}

func TestBuilder_SystemPromptCarriesWorldState(t *testing.T) {
	messages, err := New().
		WithSession(testSession(t)).
		WithUserMessage("I look around.").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("Expected system + user messages, got %d", len(messages))
	}
	system := messages[0]
	if system.Role != chat.ChatRoleSystem {
		t.Errorf("Expected system role first, got %q", system.Role)
	}
	for _, want := range []string{"travel directive", `"location":"T01"`, `"east":"T02"`, "Town Square"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("System prompt missing %q", want)
		}
	}
	if messages[1].Role != chat.ChatRolePlayer || messages[1].Content != "I look around." {
		t.Errorf("Expected player message last, got %+v", messages[1])
	}
}

func TestBuilder_HistoryWindowSkipsMarkers(t *testing.T) {
	s := testSession(t)
	s.Log.Append(chat.ChatRolePlayer, "turn 1")
	s.Log.MarkTransition("T01", "T02")
	s.Log.Append(chat.ChatRoleNarrator, "turn 2")
	s.Log.Append(chat.ChatRolePlayer, "turn 3")
	s.Log.Append(chat.ChatRoleNarrator, "turn 4")

	messages, err := New().
		WithSession(s).
		WithHistoryLimit(2).
		WithUserMessage("now").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// system + 2 windowed history turns + user
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}
	if messages[1].Content != "turn 3" || messages[2].Content != "turn 4" {
		t.Errorf("Expected the most recent turns in the window, got %q, %q", messages[1].Content, messages[2].Content)
	}
	for _, m := range messages {
		if m.Transition != nil {
			t.Error("Transition markers must not reach the LLM")
		}
	}
}

func TestBuilder_RejectionRecovery(t *testing.T) {
	messages, err := New().
		WithSession(testSession(t)).
		WithRejection(`destination "East Gate" is not a canonical location ID`).
		WithUserMessage("I go to the gate.").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	found := false
	for _, m := range messages {
		if m.Role == chat.ChatRoleSystem && strings.Contains(m.Content, "rejected by the game engine") {
			found = true
		}
	}
	if !found {
		t.Error("Expected a rejection recovery system message")
	}
}
