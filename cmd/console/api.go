package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/session"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/v1/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func listModules(client *http.Client, baseURL string) ([]string, map[string]string, error) {
	resp, err := client.Get(baseURL + "/v1/modules")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	// module key -> display name; the modal shows display names
	var moduleMap map[string]string
	if err := json.Unmarshal(body, &moduleMap); err != nil {
		return nil, nil, err
	}

	displayToModule := make(map[string]string, len(moduleMap))
	var names []string
	for module, displayName := range moduleMap {
		names = append(names, displayName)
		displayToModule[displayName] = module
	}
	sort.Strings(names)
	return names, displayToModule, nil
}

// CreateSessionRequest matches the API request structure
type CreateSessionRequest struct {
	Module string `json:"module"`
}

func createSession(client *http.Client, baseURL string, module string) (*session.GameSession, error) {
	req := CreateSessionRequest{
		Module: module,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to create session: %s", errorResp.Error)
	}

	var created session.GameSession
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	return &created, nil
}

func getSession(client *http.Client, baseURL string, sessionID uuid.UUID) (*session.GameSession, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to get session: %s", errorResp.Error)
	}

	var gs session.GameSession
	if err := json.Unmarshal(body, &gs); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &gs, nil
}

func sendTurn(client *http.Client, baseURL string, sessionID uuid.UUID, message string) (*chat.TurnResponse, error) {
	req := chat.TurnRequest{
		SessionID: sessionID,
		Message:   message,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/turn",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("turn request failed: %s", errorResp.Error)
	}

	var turnResp chat.TurnResponse
	if err := json.Unmarshal(body, &turnResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &turnResp, nil
}
