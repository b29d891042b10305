package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"mistctl"
	"mistctl/internal/service"
)

func TestGetLogs_FiltersAndDateOnlyEndOfDay(t *testing.T) {
	el := &mockEventLog{resp: []mistctl.Event{
		{EventID: "1", Type: "MODE_CHANGE", Description: "mode changed to on"},
	}}
	r := newTestRouter(&service.Service{EventLog: el})

	w := perform(r, http.MethodGet, "/api/v1/logs/?from=2026-08-01&to=2026-08-02&type=mode_change", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Count  int             `json:"count"`
		Events []mistctl.Event `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || len(resp.Events) != 1 || resp.Events[0].EventID != "1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if el.lastType != "MODE_CHANGE" {
		t.Fatalf("type not normalized: %q", el.lastType)
	}
	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !el.lastFrom.Equal(wantFrom) {
		t.Fatalf("from=%v, want %v", el.lastFrom, wantFrom)
	}
	// Date-only 'to' is end-of-day inclusive.
	wantTo := time.Date(2026, 8, 2, 23, 59, 59, 999999999, time.UTC)
	if !el.lastTo.Equal(wantTo) {
		t.Fatalf("to=%v, want %v", el.lastTo, wantTo)
	}
}

func TestGetLogs_BadTimes(t *testing.T) {
	r := newTestRouter(&service.Service{EventLog: &mockEventLog{}})

	w := perform(r, http.MethodGet, "/api/v1/logs/?from=not-a-time", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad from status=%d", w.Code)
	}

	w = perform(r, http.MethodGet, "/api/v1/logs/?from=2026-08-02&to=2026-08-01", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status=%d", w.Code)
	}
}

func TestGetLogs_RepoError(t *testing.T) {
	el := &mockEventLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{EventLog: el})

	w := perform(r, http.MethodGet, "/api/v1/logs/", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var er errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != http.StatusInternalServerError {
		t.Fatalf("body=%s (%v)", w.Body.String(), err)
	}
}
