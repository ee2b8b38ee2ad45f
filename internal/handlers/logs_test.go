package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/service"
)

func TestLogsHandler_FiltersAndParsing(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	log := &mockEventLog{resp: []models.SessionEvent{
		{EventID: "1", Type: "START", Description: "Acquisition started"},
		{EventID: "2", Type: "STOP", Description: "Acquisition finished: 1500 samples"},
	}}
	s := &service.Service{
		Authorization: auth,
		EventLog:      log,
	}
	r := newTestRouter(s)

	// full range with normalization: type lowercased in query, date-only 'to'
	w := doRequest(r, http.MethodGet, "/api/v1/logs/?from=2026-08-01&to=2026-08-02&type=start", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count  int                    `json:"count"`
		Events []models.SessionEvent  `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Events) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if log.lastType != "START" {
		t.Fatalf("type not normalized: %q", log.lastType)
	}
	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !log.lastFrom.Equal(wantFrom) {
		t.Fatalf("from=%v, want %v", log.lastFrom, wantFrom)
	}
	// date-only 'to' becomes end-of-day inclusive
	wantTo := time.Date(2026, 8, 2, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !log.lastTo.Equal(wantTo) {
		t.Fatalf("to=%v, want %v", log.lastTo, wantTo)
	}

	// RFC3339 'to' is taken literally
	w = doRequest(r, http.MethodGet, "/api/v1/logs/?to=2026-08-02T10:30:00Z", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("rfc3339 status=%d", w.Code)
	}
	if !log.lastTo.Equal(time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339 to=%v", log.lastTo)
	}

	// malformed 'from' → 400
	w = doRequest(r, http.MethodGet, "/api/v1/logs/?from=yesterday", nil, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad from status=%d", w.Code)
	}

	// inverted range → 400
	w = doRequest(r, http.MethodGet, "/api/v1/logs/?from=2026-08-03&to=2026-08-01", nil, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", w.Code)
	}
}

func TestRunsHandler_List(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	log := &mockEventLog{runs: []models.RunRecord{
		{RunID: "r2", State: "DONE", Samples: 1500},
		{RunID: "r1", State: "ERROR", Samples: 20, Message: "query: timeout"},
	}}
	s := &service.Service{
		Authorization: auth,
		EventLog:      log,
	}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet, "/api/v1/runs/", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("runs status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count int                `json:"count"`
		Runs  []models.RunRecord `json:"runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || resp.Runs[0].RunID != "r2" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Runs[1].Message != "query: timeout" {
		t.Fatalf("message lost: %+v", resp.Runs[1])
	}
}
