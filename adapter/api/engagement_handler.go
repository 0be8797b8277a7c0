package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/application"
	"github.com/localift/engage/internal/engagement/application/commands"
	"github.com/localift/engage/internal/engagement/application/queries"
	"github.com/localift/engage/internal/engagement/domain/task"
	"github.com/localift/engage/internal/listing"
)

// EngagementHandler handles board and task API requests.
type EngagementHandler struct {
	service *application.Service
	logger  *slog.Logger
}

// EngagementHandlerConfig holds dependencies for the engagement handler.
type EngagementHandlerConfig struct {
	Service *application.Service
	Logger  *slog.Logger
}

// NewEngagementHandler creates a new engagement handler.
func NewEngagementHandler(cfg EngagementHandlerConfig) *EngagementHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &EngagementHandler{
		service: cfg.Service,
		logger:  cfg.Logger,
	}
}

type refreshRequest struct {
	PlaceID      string `json:"placeId"`
	GMBAccountID string `json:"gmbAccountId"`
	AccessToken  string `json:"accessToken"`
}

type completeRequest struct {
	LocationID string `json:"locationId"`
}

type excludeRequest struct {
	Reason string `json:"reason"`
}

// refreshResponse is the board envelope with the refresh outcome
// alongside. Code carries the machine-readable cadence denial.
type refreshResponse struct {
	*queries.BoardDTO
	Refreshed bool   `json:"refreshed"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
}

// GetBoard handles GET /api/v1/locations/{locationID}/board
func (h *EngagementHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	locationID, ok := parseUUIDPath(w, r, "locationID")
	if !ok {
		return
	}

	board, err := h.service.Board(r.Context(), locationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// RefreshTasks handles POST /api/v1/locations/{locationID}/refresh
func (h *EngagementHandler) RefreshTasks(w http.ResponseWriter, r *http.Request) {
	locationID, ok := parseUUIDPath(w, r, "locationID")
	if !ok {
		return
	}

	// The body is optional; provider credentials pass through untouched.
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Malformed request body")
		return
	}

	outcome, err := h.service.Refresh(r.Context(), commands.RefreshTasksCommand{
		LocationID:   locationID,
		PlaceID:      req.PlaceID,
		GMBAccountID: req.GMBAccountID,
		AccessToken:  req.AccessToken,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// A cadence denial still answers 200 with the current board; the UI
	// must never be left blank.
	writeJSON(w, http.StatusOK, &refreshResponse{
		BoardDTO:  outcome.Board,
		Refreshed: outcome.Refreshed,
		Message:   outcome.Message,
		Code:      outcome.Code,
	})
}

// CompleteTask handles POST /api/v1/tasks/{taskID}/complete
func (h *EngagementHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseUUIDPath(w, r, "taskID")
	if !ok {
		return
	}

	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Malformed request body")
		return
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "bad_request", "A valid locationId is required", map[string]any{
			"field": "locationId",
		})
		return
	}

	result, err := h.service.Complete(r.Context(), commands.CompleteTaskCommand{
		TaskID:     taskID,
		LocationID: locationID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ExcludeTask handles POST /api/v1/tasks/{taskID}/exclude
func (h *EngagementHandler) ExcludeTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseUUIDPath(w, r, "taskID")
	if !ok {
		return
	}

	var req excludeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Malformed request body")
		return
	}

	board, err := h.service.Exclude(r.Context(), commands.ExcludeTaskCommand{
		TaskID: taskID,
		Reason: req.Reason,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// writeServiceError maps application and domain errors onto the API
// error contract.
func (h *EngagementHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *application.ConflictError

	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Task not found")
	case errors.Is(err, task.ErrTaskAlreadyCompleted):
		writeError(w, http.StatusConflict, "already_completed", "Task is already completed")
	case errors.Is(err, task.ErrTaskAlreadyExcluded):
		writeError(w, http.StatusConflict, "already_excluded", "Task is already excluded")
	case listing.IsCollaboratorError(err):
		h.logger.ErrorContext(r.Context(), "listing collaborator rejected the update", "error", err)
		writeError(w, http.StatusBadGateway, "collaborator_failed", "The listing provider rejected the update; nothing was recorded")
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "conflict", "The board changed concurrently; retry the request")
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// parseUUIDPath reads a UUID path value, answering 400 when it is
// missing or malformed.
func parseUUIDPath(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := r.PathValue(key)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "bad_request", key+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", key+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body. An empty body decodes into
// the zero request.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
