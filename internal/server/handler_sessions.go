package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/reel/internal/session"
	"github.com/me/reel/pkg/model"
)

// handleCreateSession builds a live timeline from a stored scenario.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.ScenarioID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "scenario_id", Message: "scenario_id is required"}))
		return
	}

	scn, err := s.store.GetScenario(r.Context(), req.ScenarioID)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if scn == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("scenario", req.ScenarioID))
		return
	}

	info, err := s.sessions.Create(scn, req.Paused)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	s.logger.Info("session created", "id", info.ID, "scenario_id", scn.ID)
	respondCreated(w, reqID, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if state := r.URL.Query().Get("state"); state != "" {
		opts.State = state
	}
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

	infos, total := s.sessions.List(opts)
	if infos == nil {
		infos = []model.SessionInfo{}
	}

	respondList(w, reqID, infos, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	info, ok := s.sessions.Get(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}
	respondOK(w, reqID, info)
}

// handleControlSession applies a transport command (play, pause, seek,
// ...) and returns the resulting snapshot.
func (s *Server) handleControlSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req model.ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if !req.Command.Valid() {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("unknown command",
				model.FieldError{Field: "command", Message: "unknown command " + strconv.Quote(string(req.Command))}))
		return
	}
	if req.Command.NeedsValue() && req.Value == nil {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "value", Message: string(req.Command) + " requires a value"}))
		return
	}

	info, err := s.sessions.Control(id, req)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
			return
		}
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error()))
		return
	}
	respondOK(w, reqID, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.sessions.Delete(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
			return
		}
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"deleted": true})
}
