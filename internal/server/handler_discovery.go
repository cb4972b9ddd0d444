package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "reel API",
		Version:     "v1",
		Description: "reel timeline server: scenario catalog and live playback sessions",
		Endpoints: []endpointInfo{
			{"/api/v1/scenarios", []string{"GET", "POST"}, "Scenario catalog. POST accepts {\"yaml\": \"...\"} and deduplicates identical documents"},
			{"/api/v1/scenarios/validate", []string{"POST"}, "Validate a scenario document without persisting"},
			{"/api/v1/scenarios/{id}", []string{"GET", "PUT", "DELETE"}, "Single scenario operations. PUT replaces the document, keeping the ID"},
			{"/api/v1/sessions", []string{"GET", "POST"}, "Live sessions. GET accepts ?state=RUNNING|PAUSED|FINISHED"},
			{"/api/v1/sessions/{id}", []string{"GET", "DELETE"}, "Session snapshot with per-runner status"},
			{"/api/v1/sessions/{id}/ctl", []string{"POST"}, "Transport control: play, pause, stop, finish, seek, set_time, set_speed, reverse"},
			{"/api/v1/sse/sessions/{id}", []string{"GET"}, "Server-Sent Events stream of time, state, and finished events"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
