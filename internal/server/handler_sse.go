package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/reel/pkg/model"
)

// sseHeartbeat is the idle interval between comment lines that keep
// intermediaries from closing a quiet stream.
const sseHeartbeat = 15 * time.Second

// handleSSESession streams session events via Server-Sent Events.
// GET /api/v1/sse/sessions/{id}
//
// The stream carries "time" events at frame rate while the session
// plays, "state" events after control commands, and "finished" events
// when the timeline stops on its own. It stays open across pauses and
// resumes; it ends when the client disconnects or the session is
// deleted.
func (s *Server) handleSSESession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reqID := RequestIDFromContext(r.Context())

	info, ok := s.sessions.Get(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}
	events, cancel, ok := s.sessions.Subscribe(id)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("session", id))
		return
	}
	defer cancel()

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Send the current snapshot first so clients can render immediately.
	if err := sendSSEEvent(w, flusher, "init", info); err != nil {
		s.logger.Debug("sse client disconnected", "id", id, "error", err)
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				// Session deleted.
				return
			}
			if err := sendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				s.logger.Debug("sse client disconnected", "id", id)
				return
			}
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
