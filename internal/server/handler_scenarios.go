package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/reel/pkg/model"
)

// handleCreateScenario parses, validates, and stores a scenario
// document. Pushing a byte-identical document again returns the
// existing row with 200 instead of creating a duplicate.
func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		YAML string `json:"yaml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.YAML == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "yaml", Message: "yaml is required"}))
		return
	}

	scn, err := s.parser.Parse([]byte(req.YAML))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError(err.Error()))
		return
	}
	if apiErr := s.validator.Validate(scn); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	existing, err := s.store.GetScenarioByHash(r.Context(), scn.ContentHash)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing != nil {
		s.logger.Debug("scenario push deduplicated", "id", existing.ID, "hash", scn.ContentHash)
		respondOK(w, reqID, existing)
		return
	}

	now := time.Now().UTC()
	scn.ID = "scn_" + uuid.New().String()
	scn.CreatedAt = now
	scn.UpdatedAt = now

	if err := s.store.CreateScenario(r.Context(), scn); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("scenario created", "id", scn.ID, "name", scn.Name, "items", len(scn.Items))
	respondCreated(w, reqID, scn)
}

// handleUpdateScenario replaces a stored document in place. The row
// keeps its ID and creation time, so sessions reference the same
// scenario ID across edits.
func (s *Server) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		YAML string `json:"yaml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.YAML == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "yaml", Message: "yaml is required"}))
		return
	}

	existing, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if existing == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("scenario", id))
		return
	}

	scn, err := s.parser.Parse([]byte(req.YAML))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError(err.Error()))
		return
	}
	if apiErr := s.validator.Validate(scn); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	// The content hash is unique across the catalog; refuse an update
	// that would duplicate another row's document.
	dup, err := s.store.GetScenarioByHash(r.Context(), scn.ContentHash)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if dup != nil && dup.ID != id {
		respondError(w, reqID, http.StatusConflict,
			model.NewConflictError("an identical scenario already exists: "+dup.ID))
		return
	}

	scn.ID = existing.ID
	scn.CreatedAt = existing.CreatedAt
	scn.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateScenario(r.Context(), scn); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("scenario updated", "id", scn.ID, "name", scn.Name, "items", len(scn.Items))
	respondOK(w, reqID, scn)
}

// handleValidateScenario checks a document without persisting it.
func (s *Server) handleValidateScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		YAML string `json:"yaml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	type report struct {
		Valid  bool               `json:"valid"`
		Errors []model.FieldError `json:"errors"`
	}

	scn, err := s.parser.Parse([]byte(req.YAML))
	if err != nil {
		respondOK(w, reqID, report{Valid: false, Errors: []model.FieldError{{Message: err.Error()}}})
		return
	}
	if apiErr := s.validator.Validate(scn); apiErr != nil {
		respondOK(w, reqID, report{Valid: false, Errors: apiErr.Details})
		return
	}
	respondOK(w, reqID, report{Valid: true, Errors: []model.FieldError{}})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Offset = n
		}
	}

	scenarios, total, err := s.store.ListScenarios(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if scenarios == nil {
		scenarios = []*model.Scenario{}
	}

	respondList(w, reqID, scenarios, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	scn, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("scenario", id))
		return
	}
	respondOK(w, reqID, scn)
}

// handleDeleteScenario removes a definition from the catalog. Sessions
// already built from it keep their own copy and continue running.
func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	scn, err := s.store.GetScenario(r.Context(), id)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("scenario", id))
		return
	}

	if err := s.store.DeleteScenario(r.Context(), id); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("scenario deleted", "id", id, "name", scn.Name)
	respondOK(w, reqID, map[string]any{"deleted": true})
}
