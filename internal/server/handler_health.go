package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/reel/pkg/model"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Sessions  int    `json:"sessions"`
	FrameRate int    `json:"frame_rate"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	storeStatus := "ok"
	if _, _, err := s.store.ListScenarios(r.Context(), model.DefaultListOptions()); err != nil {
		storeStatus = "error: " + err.Error()
	}

	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     storeStatus,
		Sessions:  s.sessions.Count(),
		FrameRate: s.config.FrameRate,
	})
}
