package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/campaignforge/dmengine/internal/logger"
	"github.com/campaignforge/dmengine/internal/services"
	"github.com/campaignforge/dmengine/internal/storage"
	"github.com/campaignforge/dmengine/pkg/chat"
	"github.com/campaignforge/dmengine/pkg/conversation"
	"github.com/campaignforge/dmengine/pkg/prompts"
	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/travel"
)

const turnTimeout = 60 * time.Second

// TurnHandler runs one turn of play: prompt assembly, narration,
// travel validation, and threshold-triggered log compaction.
type TurnHandler struct {
	storage             storage.Storage
	llmService          services.LLMService
	compactor           *conversation.Compactor
	compactionThreshold int
	logger              *slog.Logger
}

func NewTurnHandler(storage storage.Storage, llmService services.LLMService, compactor *conversation.Compactor, compactionThreshold int, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		storage:             storage,
		llmService:          llmService,
		compactor:           compactor,
		compactionThreshold: compactionThreshold,
		logger:              logger,
	}
}

// ServeHTTP handles POST /v1/turn.
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'session_id' and 'message' fields.")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	gs, err := h.storage.LoadSession(ctx, req.SessionID)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	log := logger.WithSession(h.logger, gs.ID)

	wd, err := h.storage.LoadWorld(ctx, gs.Module)
	if err != nil {
		log.Error("Failed to load world module", "module", gs.Module, "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to load world module")
		return
	}
	if err := gs.LoadWorld(wd, log); err != nil {
		log.Error("World module failed validation", "module", gs.Module, "error", err)
		writeError(w, log, http.StatusInternalServerError, "World module failed validation")
		return
	}

	narration, validation, err := h.runTurn(ctx, log, gs, req.Message)
	if err != nil {
		log.Error("Error generating narration", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to generate response. Please try again.")
		return
	}

	h.maybeCompact(ctx, log, gs)

	if err := h.storage.SaveSession(ctx, gs.ID, gs); err != nil {
		log.Error("Failed to save session", "error", err)
		writeError(w, log, http.StatusInternalServerError, "Failed to save session")
		return
	}

	response := chat.TurnResponse{
		SessionID: gs.ID,
		Message:   narration,
		Location:  gs.Location,
		Travel:    validation,
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding turn response", "error", err)
	}
}

// runTurn appends the player's message, asks the narrator for a reply,
// and checks any travel directive against the location graph. A
// rejected directive earns the narrator one corrective retry; if that
// also fails, the rejected directive is stripped and the party stays
// put.
func (h *TurnHandler) runTurn(ctx context.Context, log *slog.Logger, gs *session.GameSession, message string) (string, *travel.Validation, error) {
	messages, err := prompts.New().
		WithSession(gs).
		WithUserMessage(message).
		Build()
	if err != nil {
		return "", nil, err
	}

	raw, err := h.llmService.GenerateResponse(ctx, messages)
	if err != nil {
		return "", nil, err
	}

	validator := travel.NewValidator(gs.Graph(), log)
	validation, present := validator.Validate(raw, gs.Location)

	if present && !validation.Accepted() {
		raw, validation, present, err = h.retryRejected(ctx, log, gs, message, validation)
		if err != nil {
			return "", nil, err
		}
	}

	// The log gains the turn only once narration is in hand, so a
	// failed generation leaves the session untouched.
	narration := travel.StripDirective(raw)
	gs.Log.Append(chat.ChatRolePlayer, message)
	gs.Log.Append(chat.ChatRoleNarrator, narration)

	if present && validation.Accepted() {
		if err := gs.MoveAlong(validation.Path); err != nil {
			// Graph and validation disagree; keep the party in place.
			log.Error("Failed to commit validated travel", "error", err)
		}
	}

	if !present {
		return narration, nil, nil
	}
	return narration, &validation, nil
}

// retryRejected gives the narrator one chance to correct a rejected
// travel directive. The retry prompt carries the rejection diagnostic;
// whatever comes back is final.
func (h *TurnHandler) retryRejected(ctx context.Context, log *slog.Logger, gs *session.GameSession, message string, rejected travel.Validation) (string, travel.Validation, bool, error) {
	log.Warn("Travel directive rejected, retrying",
		"outcome", rejected.Outcome,
		"destination", rejected.Destination)

	messages, err := prompts.New().
		WithSession(gs).
		WithUserMessage(message).
		WithRejection(rejected.Message).
		Build()
	if err != nil {
		return "", rejected, true, err
	}

	raw, err := h.llmService.GenerateResponse(ctx, messages)
	if err != nil {
		return "", rejected, true, err
	}

	validator := travel.NewValidator(gs.Graph(), log)
	validation, present := validator.Validate(raw, gs.Location)
	if !present {
		// The narrator dropped the directive entirely; report the
		// original rejection so the client sees why nothing moved.
		return raw, rejected, true, nil
	}
	return raw, validation, true, nil
}

// maybeCompact compacts the oldest closed segment when the log has
// grown past the configured threshold. Compaction failures are logged
// and swallowed; a turn never fails because a summary did.
func (h *TurnHandler) maybeCompact(ctx context.Context, log *slog.Logger, gs *session.GameSession) {
	if h.compactor == nil || h.compactionThreshold <= 0 {
		return
	}
	if !gs.Log.NeedsCompaction(h.compactionThreshold) {
		return
	}

	result, err := h.compactor.CompactLog(ctx, gs.Log)
	if err != nil {
		if errors.Is(err, conversation.ErrCriticalFactDropped) {
			log.Error("Compaction dropped critical facts, keeping full segment", "error", err)
		} else {
			log.Error("Compaction failed", "error", err)
		}
		return
	}
	if result == nil {
		log.Debug("Log over threshold but no closed segment to compact")
		return
	}

	log.Info("Compacted conversation segment",
		"strategy", result.Strategy,
		"compression_ratio", result.CompressionRatio,
		"critical_events", len(result.PreservedCriticalEvents))
}
