package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/me/reel/internal/config"
	"github.com/me/reel/internal/scenario"
	"github.com/me/reel/internal/script"
	"github.com/me/reel/internal/session"
	"github.com/me/reel/internal/store"
	"github.com/me/reel/pkg/model"
	"github.com/me/reel/pkg/timeline"
)

const sampleYAML = `name: pulse
description: Fade then compute
items:
  - name: fade
    kind: tween
    duration: 10
    ease: quad-out
  - name: wave
    kind: script
    duration: 20
    place: start
    script: pos * 2
`

type serverRig struct {
	srv    *Server
	source *timeline.FakeSource
	frames *timeline.ManualFrames
}

// walk advances the shared clock one millisecond per frame.
func (rig *serverRig) walk(n int) {
	for i := 0; i < n; i++ {
		rig.source.Advance(1)
		rig.frames.Fire()
	}
}

func testServer(t *testing.T) *serverRig {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := store.NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eval, err := script.NewEvaluator(logger)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	source := timeline.NewFakeSource()
	frames := timeline.NewManualFrames()
	sessions := session.NewManager(
		scenario.NewBuilder(eval, logger),
		session.NewBroker(),
		logger,
		timeline.WithSource(source),
		timeline.WithFrames(frames),
		timeline.WithLogger(logger),
	)

	srv := New(config.DefaultServerConfig(), st, sessions, eval, logger)
	return &serverRig{srv: srv, source: source, frames: frames}
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func do(t *testing.T, srv *Server, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON: %v, body=%s", method, path, err, w.Body.String())
	}
	return w.Code, env
}

func pushBody(t *testing.T, doc string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"yaml": doc})
	if err != nil {
		t.Fatalf("marshal push body: %v", err)
	}
	return string(b)
}

func pushSample(t *testing.T, rig *serverRig) string {
	t.Helper()
	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, sampleYAML))
	if code != http.StatusCreated {
		t.Fatalf("push: status=%d, error=%+v", code, env.Error)
	}
	var scn model.Scenario
	json.Unmarshal(env.Data, &scn)
	return scn.ID
}

func createSession(t *testing.T, rig *serverRig, scenarioID string, paused bool) model.SessionInfo {
	t.Helper()
	body, _ := json.Marshal(model.CreateSessionRequest{ScenarioID: scenarioID, Paused: paused})
	code, env := do(t, rig.srv, "POST", "/api/v1/sessions/", string(body))
	if code != http.StatusCreated {
		t.Fatalf("create session: status=%d, error=%+v", code, env.Error)
	}
	var info model.SessionInfo
	json.Unmarshal(env.Data, &info)
	return info
}

func TestDiscovery(t *testing.T) {
	rig := testServer(t)
	code, env := do(t, rig.srv, "GET", "/api/v1/", "")
	if code != http.StatusOK {
		t.Fatalf("status=%d, want 200", code)
	}
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data discoveryResponse
	json.Unmarshal(env.Data, &data)
	if data.Name != "reel API" {
		t.Errorf("name = %q, want reel API", data.Name)
	}
	if len(data.Endpoints) < 7 {
		t.Errorf("endpoints count = %d, want >= 7", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	rig := testServer(t)
	code, env := do(t, rig.srv, "GET", "/api/v1/health", "")
	if code != http.StatusOK {
		t.Fatalf("status=%d, want 200", code)
	}

	var data healthResponse
	json.Unmarshal(env.Data, &data)
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Store != "ok" {
		t.Errorf("store status = %q, want ok", data.Store)
	}
}

func TestCreateScenario(t *testing.T) {
	rig := testServer(t)

	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, sampleYAML))
	if code != http.StatusCreated {
		t.Fatalf("status=%d, want 201, error=%+v", code, env.Error)
	}
	var scn model.Scenario
	json.Unmarshal(env.Data, &scn)
	if !strings.HasPrefix(scn.ID, "scn_") {
		t.Errorf("id = %q, want scn_ prefix", scn.ID)
	}
	if scn.Name != "pulse" {
		t.Errorf("name = %q, want pulse", scn.Name)
	}
	if len(scn.Items) != 2 {
		t.Errorf("items = %d, want 2", len(scn.Items))
	}
}

func TestCreateScenarioDeduplicates(t *testing.T) {
	rig := testServer(t)

	first := pushSample(t, rig)

	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, sampleYAML))
	if code != http.StatusOK {
		t.Fatalf("re-push: status=%d, want 200", code)
	}
	var scn model.Scenario
	json.Unmarshal(env.Data, &scn)
	if scn.ID != first {
		t.Errorf("re-push id = %q, want %q", scn.ID, first)
	}

	_, env = do(t, rig.srv, "GET", "/api/v1/scenarios/", "")
	if env.Pagination == nil || env.Pagination.Total != 1 {
		t.Errorf("pagination = %+v, want total 1", env.Pagination)
	}
}

func TestCreateScenarioRejectsBadInput(t *testing.T) {
	rig := testServer(t)

	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/", "not json")
	if code != http.StatusBadRequest {
		t.Errorf("bad json: status=%d, want 400", code)
	}

	code, env = do(t, rig.srv, "POST", "/api/v1/scenarios/", `{"yaml":""}`)
	if code != http.StatusBadRequest {
		t.Errorf("empty yaml: status=%d, want 400", code)
	}

	code, env = do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, "{{ not yaml"))
	if code != http.StatusBadRequest {
		t.Errorf("bad yaml: status=%d, want 400", code)
	}

	// Structurally fine, semantically broken: no duration.
	code, env = do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, "name: broken\nitems:\n  - name: x\n"))
	if code != http.StatusBadRequest {
		t.Errorf("invalid doc: status=%d, want 400", code)
	}
	if env.Error == nil || env.Error.Code != model.ErrValidation || len(env.Error.Details) == 0 {
		t.Errorf("error = %+v, want validation details", env.Error)
	}
}

func TestValidateScenario(t *testing.T) {
	rig := testServer(t)

	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/validate", pushBody(t, sampleYAML))
	if code != http.StatusOK {
		t.Fatalf("status=%d, want 200", code)
	}
	var report struct {
		Valid  bool               `json:"valid"`
		Errors []model.FieldError `json:"errors"`
	}
	json.Unmarshal(env.Data, &report)
	if !report.Valid || len(report.Errors) != 0 {
		t.Errorf("report = %+v, want valid", report)
	}

	_, env = do(t, rig.srv, "POST", "/api/v1/scenarios/validate", pushBody(t, "name: broken\nitems:\n  - name: x\n"))
	json.Unmarshal(env.Data, &report)
	if report.Valid || len(report.Errors) == 0 {
		t.Errorf("report = %+v, want invalid with errors", report)
	}

	// Nothing was persisted by either call.
	_, env = do(t, rig.srv, "GET", "/api/v1/scenarios/", "")
	if env.Pagination == nil || env.Pagination.Total != 0 {
		t.Errorf("pagination = %+v, want total 0", env.Pagination)
	}
}

func TestGetScenario(t *testing.T) {
	rig := testServer(t)
	id := pushSample(t, rig)

	code, env := do(t, rig.srv, "GET", "/api/v1/scenarios/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("status=%d, want 200", code)
	}
	var scn model.Scenario
	json.Unmarshal(env.Data, &scn)
	if scn.ID != id {
		t.Errorf("id = %q, want %q", scn.ID, id)
	}

	code, env = do(t, rig.srv, "GET", "/api/v1/scenarios/scn_nope", "")
	if code != http.StatusNotFound {
		t.Errorf("missing: status=%d, want 404", code)
	}
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

const trimmedYAML = `name: pulse
description: Fade only
items:
  - name: fade
    kind: tween
    duration: 30
    ease: quad-out
`

func TestUpdateScenario(t *testing.T) {
	rig := testServer(t)
	id := pushSample(t, rig)

	code, env := do(t, rig.srv, "PUT", "/api/v1/scenarios/"+id, pushBody(t, trimmedYAML))
	if code != http.StatusOK {
		t.Fatalf("status=%d, error=%+v", code, env.Error)
	}
	var scn model.Scenario
	json.Unmarshal(env.Data, &scn)
	if scn.ID != id {
		t.Errorf("id = %q, want %q", scn.ID, id)
	}
	if len(scn.Items) != 1 || scn.Items[0].Duration != 30 {
		t.Errorf("items = %+v, want one 30ms tween", scn.Items)
	}

	_, env = do(t, rig.srv, "GET", "/api/v1/scenarios/"+id, "")
	json.Unmarshal(env.Data, &scn)
	if scn.Description != "Fade only" {
		t.Errorf("stored description = %q, want Fade only", scn.Description)
	}

	code, _ = do(t, rig.srv, "PUT", "/api/v1/scenarios/scn_nope", pushBody(t, trimmedYAML))
	if code != http.StatusNotFound {
		t.Errorf("missing: status=%d, want 404", code)
	}

	code, _ = do(t, rig.srv, "PUT", "/api/v1/scenarios/"+id, pushBody(t, "name: broken\nitems:\n  - name: x\n"))
	if code != http.StatusBadRequest {
		t.Errorf("invalid doc: status=%d, want 400", code)
	}
}

func TestUpdateScenarioConflict(t *testing.T) {
	rig := testServer(t)
	pushSample(t, rig)

	code, env := do(t, rig.srv, "POST", "/api/v1/scenarios/", pushBody(t, trimmedYAML))
	if code != http.StatusCreated {
		t.Fatalf("second push: status=%d", code)
	}
	var second model.Scenario
	json.Unmarshal(env.Data, &second)

	// Rewriting the second scenario with the first one's document would
	// leave two identical rows in the catalog.
	code, env = do(t, rig.srv, "PUT", "/api/v1/scenarios/"+second.ID, pushBody(t, sampleYAML))
	if code != http.StatusConflict {
		t.Errorf("status=%d, want 409", code)
	}
	if env.Error == nil || env.Error.Code != model.ErrConflict {
		t.Errorf("error = %+v, want CONFLICT", env.Error)
	}
}

func TestDeleteScenario(t *testing.T) {
	rig := testServer(t)
	id := pushSample(t, rig)

	code, _ := do(t, rig.srv, "DELETE", "/api/v1/scenarios/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("status=%d, want 200", code)
	}
	code, _ = do(t, rig.srv, "GET", "/api/v1/scenarios/"+id, "")
	if code != http.StatusNotFound {
		t.Errorf("after delete: status=%d, want 404", code)
	}
	code, _ = do(t, rig.srv, "DELETE", "/api/v1/scenarios/"+id, "")
	if code != http.StatusNotFound {
		t.Errorf("second delete: status=%d, want 404", code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	rig := testServer(t)

	code, _ := do(t, rig.srv, "POST", "/api/v1/sessions/", `{}`)
	if code != http.StatusBadRequest {
		t.Errorf("missing scenario_id: status=%d, want 400", code)
	}

	code, _ = do(t, rig.srv, "POST", "/api/v1/sessions/", `{"scenario_id":"scn_nope"}`)
	if code != http.StatusNotFound {
		t.Errorf("unknown scenario: status=%d, want 404", code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	rig := testServer(t)
	scnID := pushSample(t, rig)

	info := createSession(t, rig, scnID, true)
	if !strings.HasPrefix(info.ID, "ses_") {
		t.Errorf("id = %q, want ses_ prefix", info.ID)
	}
	if info.State != model.SessionStatePaused {
		t.Errorf("state = %s, want PAUSED", info.State)
	}
	if info.EndTime != 20 {
		t.Errorf("end_time = %v, want 20", info.EndTime)
	}
	if len(info.Runners) != 2 {
		t.Fatalf("runners = %d, want 2", len(info.Runners))
	}

	// Play, then advance five frames of one millisecond each.
	code, env := do(t, rig.srv, "POST", "/api/v1/sessions/"+info.ID+"/ctl", `{"command":"play"}`)
	if code != http.StatusOK {
		t.Fatalf("play: status=%d, error=%+v", code, env.Error)
	}
	var got model.SessionInfo
	json.Unmarshal(env.Data, &got)
	if got.State != model.SessionStateRunning {
		t.Errorf("state after play = %s, want RUNNING", got.State)
	}

	rig.walk(5)

	code, env = do(t, rig.srv, "GET", "/api/v1/sessions/"+info.ID, "")
	if code != http.StatusOK {
		t.Fatalf("get: status=%d", code)
	}
	json.Unmarshal(env.Data, &got)
	if got.Playhead != 5 {
		t.Errorf("playhead = %v, want 5", got.Playhead)
	}

	// The script runner computes pos * 2 at its local time.
	for _, r := range got.Runners {
		if r.Kind != model.ItemKindScript {
			continue
		}
		if r.Value == nil || *r.Value != 0.5 {
			t.Errorf("script value = %v, want 0.5", r.Value)
		}
	}

	code, env = do(t, rig.srv, "POST", "/api/v1/sessions/"+info.ID+"/ctl", `{"command":"finish"}`)
	if code != http.StatusOK {
		t.Fatalf("finish: status=%d", code)
	}
	json.Unmarshal(env.Data, &got)
	if got.State != model.SessionStateFinished {
		t.Errorf("state after finish = %s, want FINISHED", got.State)
	}

	code, _ = do(t, rig.srv, "DELETE", "/api/v1/sessions/"+info.ID, "")
	if code != http.StatusOK {
		t.Fatalf("delete: status=%d", code)
	}
	code, _ = do(t, rig.srv, "GET", "/api/v1/sessions/"+info.ID, "")
	if code != http.StatusNotFound {
		t.Errorf("after delete: status=%d, want 404", code)
	}
}

func TestControlSessionValidation(t *testing.T) {
	rig := testServer(t)
	scnID := pushSample(t, rig)
	info := createSession(t, rig, scnID, true)

	code, _ := do(t, rig.srv, "POST", "/api/v1/sessions/"+info.ID+"/ctl", `{"command":"teleport"}`)
	if code != http.StatusBadRequest {
		t.Errorf("unknown command: status=%d, want 400", code)
	}

	code, _ = do(t, rig.srv, "POST", "/api/v1/sessions/"+info.ID+"/ctl", `{"command":"seek"}`)
	if code != http.StatusBadRequest {
		t.Errorf("seek without value: status=%d, want 400", code)
	}

	code, _ = do(t, rig.srv, "POST", "/api/v1/sessions/ses_nope/ctl", `{"command":"play"}`)
	if code != http.StatusNotFound {
		t.Errorf("unknown session: status=%d, want 404", code)
	}
}

func TestListSessionsFilter(t *testing.T) {
	rig := testServer(t)
	scnID := pushSample(t, rig)

	createSession(t, rig, scnID, true)
	createSession(t, rig, scnID, false)

	code, env := do(t, rig.srv, "GET", "/api/v1/sessions/?state=PAUSED", "")
	if code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	var infos []model.SessionInfo
	json.Unmarshal(env.Data, &infos)
	if len(infos) != 1 {
		t.Fatalf("filtered = %d, want 1", len(infos))
	}
	if infos[0].State != model.SessionStatePaused {
		t.Errorf("state = %s, want PAUSED", infos[0].State)
	}

	_, env = do(t, rig.srv, "GET", "/api/v1/sessions/", "")
	json.Unmarshal(env.Data, &infos)
	if len(infos) != 2 {
		t.Errorf("unfiltered = %d, want 2", len(infos))
	}
}

// readSSEEvent consumes one event from the stream.
func readSSEEvent(t *testing.T, r *bufio.Reader) (event string, data []byte) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read sse: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = []byte(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestSSESessionStream(t *testing.T) {
	rig := testServer(t)
	ts := httptest.NewServer(rig.srv)
	defer ts.Close()

	scnID := pushSample(t, rig)
	info := createSession(t, rig, scnID, true)

	resp, err := http.Get(ts.URL + "/api/v1/sse/sessions/" + info.ID)
	if err != nil {
		t.Fatalf("sse get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q, want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)

	event, data := readSSEEvent(t, reader)
	if event != "init" {
		t.Fatalf("first event = %q, want init", event)
	}
	var snap model.SessionInfo
	json.Unmarshal(data, &snap)
	if snap.ID != info.ID {
		t.Errorf("init id = %q, want %q", snap.ID, info.ID)
	}

	// A control command must show up on the stream as a state event.
	do(t, rig.srv, "POST", "/api/v1/sessions/"+info.ID+"/ctl", `{"command":"play"}`)

	event, data = readSSEEvent(t, reader)
	if event != "state" {
		t.Fatalf("second event = %q, want state", event)
	}
	var ev model.Event
	json.Unmarshal(data, &ev)
	if ev.State != model.SessionStateRunning {
		t.Errorf("event state = %s, want RUNNING", ev.State)
	}

	// Ticks appear as time events.
	rig.walk(1)
	event, data = readSSEEvent(t, reader)
	if event != "time" {
		t.Fatalf("third event = %q, want time", event)
	}
	json.Unmarshal(data, &ev)
	if ev.Playhead != 1 {
		t.Errorf("playhead = %v, want 1", ev.Playhead)
	}
}

func TestSSESessionNotFound(t *testing.T) {
	rig := testServer(t)
	code, env := do(t, rig.srv, "GET", "/api/v1/sse/sessions/ses_nope", "")
	if code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", code)
	}
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}
