package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.RelayEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventConnectivity, Description: "device online"},
		{EventID: "e2", OccurredAt: now.Add(1 * time.Second), Type: models.EventModeChange, Description: "relay1 mode changed to on"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{EventLog: logs})

	// invalid 'from' → 400
	w := doRequest(r, http.MethodGet, "/api/v1/logs?from=notatime", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// from after to → 400
	w = doRequest(r, http.MethodGet, "/api/v1/logs?from=2025-08-02&to=2025-08-01", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}

	// lowercase type is normalized before reaching the service
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=mode_change"
	w = doRequest(r, http.MethodGet, q, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                 `json:"count"`
		Events []models.RelayEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != models.EventModeChange {
		t.Fatalf("expected lastType MODE_CHANGE, got %q", logs.lastType)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{EventLog: logs})

	w := doRequest(r, http.MethodGet, "/api/v1/logs?from=2025-08-01&to=2025-08-01", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	wantTo := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to = %v, want %v", logs.lastTo, wantTo)
	}
}

func TestLogsHandler_ServiceError(t *testing.T) {
	r := newTestRouter(&service.Service{EventLog: &mockEventLog{err: errors.New("db down")}})
	if w := doRequest(r, http.MethodGet, "/api/v1/logs", "", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestLogsHandler_RelayFilterAndLimit(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.RelayEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventModeChange, Metadata: map[string]any{"relay": "relay1", "to": "on"}},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventConnectivity, Metadata: map[string]any{"online": true}},
		{EventID: "e3", OccurredAt: now.Add(2 * time.Second), Type: models.EventModeChange, Metadata: map[string]any{"relay": "relay2", "to": "off"}},
		{EventID: "e4", OccurredAt: now.Add(3 * time.Second), Type: models.EventModeChange, Metadata: map[string]any{"relay": "relay1", "to": "auto"}},
	}
	r := newTestRouter(&service.Service{EventLog: &mockEventLog{resp: events}})

	var out struct {
		Count  int                 `json:"count"`
		Events []models.RelayEvent `json:"events"`
	}
	w := doRequest(r, http.MethodGet, "/api/v1/logs?relay=relay1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Events[0].EventID != "e1" || out.Events[1].EventID != "e4" {
		t.Fatalf("relay filter: %+v", out)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/logs?limit=2", "", "")
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Events[0].EventID != "e3" || out.Events[1].EventID != "e4" {
		t.Fatalf("limit keeps newest: %+v", out)
	}
}

func TestLogsHandler_RejectsBadFilters(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{EventLog: logs})

	for _, q := range []string{"type=REBOOT", "limit=-1", "limit=5000", "limit=abc"} {
		if w := doRequest(r, http.MethodGet, "/api/v1/logs?"+q, "", ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400", q, w.Code)
		}
	}
}
