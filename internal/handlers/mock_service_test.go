package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockRelays struct {
	modes     models.ModeMap
	getErr    error
	snap      models.Snapshot
	setErr    error
	lastRelay string
	lastMode  string
	lastModes map[string]string
	setCalls  int
}

func (m *mockRelays) GetModeMap(ctx context.Context) (models.ModeMap, error) {
	return m.modes, m.getErr
}
func (m *mockRelays) SetMode(ctx context.Context, relay, mode string) (models.Snapshot, error) {
	m.setCalls++
	m.lastRelay = relay
	m.lastMode = mode
	return m.snap, m.setErr
}
func (m *mockRelays) SetModes(ctx context.Context, modes map[string]string) (models.Snapshot, error) {
	m.setCalls++
	m.lastModes = modes
	return m.snap, m.setErr
}

type mockDevice struct {
	snap         models.Snapshot
	reportErr    error
	lastReport   models.Report
	reportCalls  int
	heartbeats   int
	token        time.Time
	connectivity models.Connectivity
}

func (m *mockDevice) Report(ctx context.Context, r models.Report) (models.Snapshot, error) {
	m.reportCalls++
	m.lastReport = r
	return m.snap, m.reportErr
}
func (m *mockDevice) Heartbeat()                        { m.heartbeats++ }
func (m *mockDevice) RefreshToken() time.Time           { return m.token }
func (m *mockDevice) IsOnline() bool                    { return m.connectivity.Online }
func (m *mockDevice) Connectivity() models.Connectivity { return m.connectivity }

type mockMonitoring struct {
	snap models.Snapshot
	err  error
}

func (m *mockMonitoring) GetLiveSnapshot(ctx context.Context) (models.Snapshot, error) {
	return m.snap, m.err
}

type mockEventLog struct {
	resp     []models.RelayEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.RelayEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockThresholds struct {
	stored  models.Thresholds
	getErr  error
	setErr  error
	lastSet models.Thresholds
}

func (m *mockThresholds) GetThresholds(ctx context.Context) (models.Thresholds, error) {
	return m.stored, m.getErr
}
func (m *mockThresholds) SetThresholds(ctx context.Context, t models.Thresholds) (models.Thresholds, error) {
	m.lastSet = t
	if m.setErr != nil {
		return nil, m.setErr
	}
	return t, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func doRequest(r http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.ServeHTTP(w, req)
	return w
}

func sampleSnapshot() models.Snapshot {
	return models.Snapshot{
		Temperature: 24.5,
		Humidity:    61,
		Soil:        430,
		ObservedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Relays: map[models.RelayID]models.RelayState{
			"relay1": models.StateOn,
			"relay2": models.StateOff,
			"relay3": models.StateOff,
		},
	}
}
