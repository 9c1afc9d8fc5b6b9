package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/internal/storage"
	"github.com/campaignforge/dmengine/pkg/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(storage storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

// CreateSessionRequest defines the request body for creating a session.
// Location is optional; the module's start location is used when empty.
type CreateSessionRequest struct {
	Module   string `json:"module"`
	Location string `json:"location,omitempty"`
}

// ServeHTTP handles session CRUD.
// Routes:
// POST /v1/sessions         - Create new session
// GET /v1/sessions/{id}     - Read session by ID
// DELETE /v1/sessions/{id}  - Delete session by ID
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions")
	var sessionID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		sessionID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		if sessionID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for GET requests")
			return
		}
		h.handleRead(w, r, sessionID)

	case http.MethodDelete:
		if sessionID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, sessionID)

	default:
		h.logger.Warn("Method not allowed for sessions endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Module = strings.TrimSuffix(strings.TrimSpace(req.Module), ".json")
	if req.Module == "" {
		writeError(w, h.logger, http.StatusBadRequest, "module field is required")
		return
	}

	wd, err := h.storage.LoadWorld(r.Context(), req.Module)
	if err != nil {
		h.logger.Warn("Failed to load world module", "module", req.Module, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to load world module: "+err.Error())
		return
	}

	gs := session.New(req.Module)
	gs.Location = req.Location
	if gs.Location == "" {
		gs.Location = wd.StartLocation()
	}

	if err := gs.LoadWorld(wd, h.logger); err != nil {
		h.logger.Warn("World module failed validation", "module", req.Module, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "World module failed validation: "+err.Error())
		return
	}

	if err := h.storage.SaveSession(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.logger.Info("Session created", "session_id", gs.ID, "module", gs.Module, "location", gs.Location)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gs, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}

	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModulesHandler lists the world modules available on disk.
type ModulesHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewModulesHandler(storage storage.Storage, logger *slog.Logger) *ModulesHandler {
	return &ModulesHandler{storage: storage, logger: logger}
}

func (h *ModulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	modules, err := h.storage.ListModules(r.Context())
	if err != nil {
		h.logger.Error("Failed to list world modules", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list world modules")
		return
	}

	if err := json.NewEncoder(w).Encode(modules); err != nil {
		h.logger.Error("Failed to encode modules response", "error", err)
	}
}
