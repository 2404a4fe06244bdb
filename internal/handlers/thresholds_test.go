package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"relay_hub/internal/models"
	"relay_hub/internal/service"
)

func TestGetThresholds(t *testing.T) {
	th := &mockThresholds{stored: models.Thresholds{"temp_max": "30"}}
	r := newTestRouter(&service.Service{Thresholds: th})

	for _, path := range []string{"/api/v1/thresholds", "/get_thresholds"} {
		w := doRequest(r, http.MethodGet, path, "", "")
		if w.Code != http.StatusOK || w.Body.String() != `{"temp_max":"30"}` {
			t.Fatalf("%s status=%d, body=%s", path, w.Code, w.Body.String())
		}
	}

	th.getErr = fmt.Errorf("%w: load thresholds: timeout", service.ErrStoreUnavailable)
	if w := doRequest(r, http.MethodGet, "/get_thresholds", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("store error status=%d", w.Code)
	}
}

func TestPutThresholds_JSON(t *testing.T) {
	th := &mockThresholds{}
	r := newTestRouter(&service.Service{Thresholds: th})

	w := doRequest(r, http.MethodPut, "/api/v1/thresholds", "application/json; charset=utf-8", `{"temp_max":28.5,"soil_min":"350","pump":true,"skip":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	want := models.Thresholds{"temp_max": "28.5", "soil_min": "350", "pump": "true"}
	if len(th.lastSet) != len(want) {
		t.Fatalf("service got %v, want %v", th.lastSet, want)
	}
	for k, v := range want {
		if th.lastSet[k] != v {
			t.Fatalf("%s = %q, want %q", k, th.lastSet[k], v)
		}
	}
	var resp models.Thresholds
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp["soil_min"] != "350" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	if w := doRequest(r, http.MethodPut, "/api/v1/thresholds", "application/json", `[1]`); w.Code != http.StatusBadRequest {
		t.Fatalf("array body status=%d", w.Code)
	}
}

func TestUpdateThresholds_LegacyForm(t *testing.T) {
	th := &mockThresholds{}
	r := newTestRouter(&service.Service{Thresholds: th})

	w := doRequest(r, http.MethodPost, "/update_thresholds", "application/x-www-form-urlencoded", "temp_max=31&hum_min=40")
	if w.Code != http.StatusOK || w.Body.String() != "Updated" {
		t.Fatalf("status=%d, body=%q", w.Code, w.Body.String())
	}
	if th.lastSet["temp_max"] != "31" || th.lastSet["hum_min"] != "40" {
		t.Fatalf("service got %v", th.lastSet)
	}

	th.setErr = errors.New("boom")
	if w := doRequest(r, http.MethodPost, "/update_thresholds", "application/x-www-form-urlencoded", "a=1"); w.Code != http.StatusInternalServerError {
		t.Fatalf("service error status=%d", w.Code)
	}
}
