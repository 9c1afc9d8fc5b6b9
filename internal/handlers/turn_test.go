package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/internal/services"
	"github.com/campaignforge/dmengine/internal/storage"
	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/conversation"
	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/travel"
)

func setupTurnHandler(threshold int) (*TurnHandler, *storage.MockStorage, *services.MockLLMAPI) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddWorld("greenhollow", testWorld())

	mockLLM := services.NewMockLLMAPI()
	logger := testLogger()
	compactor := conversation.NewCompactor(services.NewLLMGenerator(mockLLM), logger)

	handler := NewTurnHandler(mockStorage, mockLLM, compactor, threshold, logger)
	return handler, mockStorage, mockLLM
}

func seedSession(t *testing.T, mockStorage *storage.MockStorage, location string) *session.GameSession {
	t.Helper()
	gs := session.New("greenhollow")
	gs.Location = location
	if err := mockStorage.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
	return gs
}

func postTurn(t *testing.T, handler *TurnHandler, id uuid.UUID, message string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"session_id":%q,"message":%q}`, id, message)
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestTurnHandler_PlainNarration(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "The market stalls are closing for the evening.", nil
	}

	rr := postTurn(t, handler, gs.ID, "I look around the square.")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var response chat.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Message != "The market stalls are closing for the evening." {
		t.Errorf("Unexpected narration: %q", response.Message)
	}
	if response.Location != "T01" {
		t.Errorf("Expected location T01, got %s", response.Location)
	}
	if response.Travel != nil {
		t.Errorf("Expected no travel result, got %+v", response.Travel)
	}

	saved, _ := mockStorage.LoadSession(context.Background(), gs.ID)
	if len(saved.Log.Turns) != 2 {
		t.Fatalf("Expected 2 log turns, got %d", len(saved.Log.Turns))
	}
	if saved.Log.Turns[0].Role != chat.ChatRolePlayer {
		t.Errorf("Expected player turn first, got %s", saved.Log.Turns[0].Role)
	}
}

func TestTurnHandler_AcceptedTravel(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "You shoulder through the crowd toward the gate.\n{\"travel\": {\"destination\": \"T02\"}}", nil
	}

	rr := postTurn(t, handler, gs.ID, "Head to the east gate.")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var response chat.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Location != "T02" {
		t.Errorf("Expected location T02 after travel, got %s", response.Location)
	}
	if response.Travel == nil || response.Travel.Outcome != travel.TravelAccepted {
		t.Fatalf("Expected accepted travel, got %+v", response.Travel)
	}
	if strings.Contains(response.Message, "travel") && strings.Contains(response.Message, "{") {
		t.Errorf("Expected directive stripped from narration, got %q", response.Message)
	}

	saved, _ := mockStorage.LoadSession(context.Background(), gs.ID)
	if saved.Location != "T02" {
		t.Errorf("Expected saved location T02, got %s", saved.Location)
	}

	foundMarker := false
	for _, turn := range saved.Log.Turns {
		if turn.IsTransition() {
			foundMarker = true
			if turn.Transition.From != "T01" || turn.Transition.To != "T02" {
				t.Errorf("Unexpected transition marker: %+v", turn.Transition)
			}
		}
	}
	if !foundMarker {
		t.Error("Expected a transition marker in the log after travel")
	}
}

func TestTurnHandler_RejectedThenCorrected(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	call := 0
	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		call++
		if call == 1 {
			return "You head east.\n{\"travel\": {\"destination\": \"East Gate\"}}", nil
		}
		// Retry prompt should carry the rejection diagnostic.
		sawRejection := false
		for _, m := range messages {
			if m.Role == chat.ChatRoleSystem && strings.Contains(m.Content, "rejected") {
				sawRejection = true
			}
		}
		if !sawRejection {
			t.Error("Expected rejection recovery prompt on retry")
		}
		return "You head east to the gate.\n{\"travel\": {\"destination\": \"T02\"}}", nil
	}

	rr := postTurn(t, handler, gs.ID, "Go to the East Gate.")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	if call != 2 {
		t.Errorf("Expected 2 LLM calls (initial + retry), got %d", call)
	}

	var response chat.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Location != "T02" {
		t.Errorf("Expected location T02 after corrected travel, got %s", response.Location)
	}
	if response.Travel == nil || response.Travel.Outcome != travel.TravelAccepted {
		t.Errorf("Expected accepted travel after retry, got %+v", response.Travel)
	}
}

func TestTurnHandler_RejectedTwice(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "You march toward the crypt.\n{\"travel\": {\"destination\": \"C01\"}}", nil
	}

	rr := postTurn(t, handler, gs.ID, "Go to the crypt.")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var response chat.TurnResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Location != "T01" {
		t.Errorf("Expected party to stay at T01, got %s", response.Location)
	}
	if response.Travel == nil || response.Travel.Outcome != travel.TravelRejectedUnreachable {
		t.Errorf("Expected unreachable rejection, got %+v", response.Travel)
	}
	if strings.Contains(response.Message, "{\"travel\"") {
		t.Errorf("Expected rejected directive stripped from narration, got %q", response.Message)
	}
}

func TestTurnHandler_SessionNotFound(t *testing.T) {
	handler, _, _ := setupTurnHandler(0)

	rr := postTurn(t, handler, uuid.New(), "Hello?")

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestTurnHandler_ValidationErrors(t *testing.T) {
	handler, mockStorage, _ := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	tests := []struct {
		name string
		body string
	}{
		{"empty message", fmt.Sprintf(`{"session_id":%q,"message":""}`, gs.ID)},
		{"missing session id", `{"message":"hi"}`},
		{"invalid json", `{not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestTurnHandler_LLMFailureLeavesLogUntouched(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(0)
	gs := seedSession(t, mockStorage, "T01")

	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "", errors.New("api unavailable")
	}

	rr := postTurn(t, handler, gs.ID, "I look around.")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}

	saved, _ := mockStorage.LoadSession(context.Background(), gs.ID)
	if len(saved.Log.Turns) != 0 {
		t.Errorf("Expected log untouched after LLM failure, got %d turns", len(saved.Log.Turns))
	}
}

func TestTurnHandler_CompactionTriggered(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(50)
	gs := seedSession(t, mockStorage, "T02")

	// A closed segment at T01 followed by ongoing play at T02. The
	// segment content is long enough to push the log past threshold.
	gs.Log.Append(chat.ChatRolePlayer, "I ask the blacksmith about the ruined watchtower on the hill.")
	gs.Log.Append(chat.ChatRoleNarrator, "The blacksmith wipes soot from his hands and tells you the watchtower has been empty since the garrison left, though lights are seen there on cold nights.")
	gs.Log.MarkTransition("T01", "T02")
	gs.Log.Append(chat.ChatRolePlayer, "I ask the gate guard about the road east.")
	if err := mockStorage.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}

	compactionCalls := 0
	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		if len(messages) > 0 && strings.Contains(messages[0].Content, "archivist") {
			compactionCalls++
			return "The party questioned the blacksmith about the empty watchtower and its night lights.", nil
		}
		return "The guard shrugs and waves you through.", nil
	}

	rr := postTurn(t, handler, gs.ID, "Anything on the road east?")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	if compactionCalls != 1 {
		t.Fatalf("Expected 1 compaction call, got %d", compactionCalls)
	}

	saved, _ := mockStorage.LoadSession(context.Background(), gs.ID)
	foundSummary := false
	for _, turn := range saved.Log.Turns {
		if strings.HasPrefix(turn.Content, conversation.SummaryPrefix) {
			foundSummary = true
		}
	}
	if !foundSummary {
		t.Error("Expected a compaction summary in the saved log")
	}
}

func TestTurnHandler_CompactionFailureDoesNotFailTurn(t *testing.T) {
	handler, mockStorage, mockLLM := setupTurnHandler(50)
	gs := seedSession(t, mockStorage, "T02")

	gs.Log.Append(chat.ChatRolePlayer, "I ask the blacksmith about the ruined watchtower on the hill.")
	gs.Log.Append(chat.ChatRoleNarrator, "The blacksmith tells you the watchtower has been empty since the garrison left, though lights are seen there on cold nights near the old signal brazier.")
	gs.Log.MarkTransition("T01", "T02")
	if err := mockStorage.SaveSession(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}

	mockLLM.GenerateResponseFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		if len(messages) > 0 && strings.Contains(messages[0].Content, "archivist") {
			return "", errors.New("summarizer down")
		}
		return "The guard shrugs.", nil
	}

	rr := postTurn(t, handler, gs.ID, "Anything else?")

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected turn to succeed despite compaction failure, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	saved, _ := mockStorage.LoadSession(context.Background(), gs.ID)
	for _, turn := range saved.Log.Turns {
		if strings.HasPrefix(turn.Content, conversation.SummaryPrefix) {
			t.Error("Expected no summary after failed compaction")
		}
	}
}
