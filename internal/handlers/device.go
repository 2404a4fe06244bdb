package handlers

import (
	"net/http"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// Device status values on the wire.
const (
	deviceOnline  = "online"
	deviceOffline = "offline"
)

// refreshResponse is the wire shape of the refresh token.
type refreshResponse struct {
	Token    int64  `json:"token" example:"1717243200123"`
	IssuedAt string `json:"issued_at" example:"2024-06-01T12:00:00Z"`
}

// statusResponse is the wire shape of device connectivity.
type statusResponse struct {
	Status   string  `json:"status" example:"online"`
	LastSeen *string `json:"last_seen"`
}

func newRefreshResponse(token time.Time) refreshResponse {
	return refreshResponse{Token: token.UnixMilli(), IssuedAt: token.UTC().Format(time.RFC3339)}
}

func newStatusResponse(c models.Connectivity) statusResponse {
	resp := statusResponse{Status: deviceOffline}
	if c.Online {
		resp.Status = deviceOnline
	}
	if !c.LastSeenAt.IsZero() {
		seen := c.LastSeenAt.UTC().Format(time.RFC3339)
		resp.LastSeen = &seen
	}
	return resp
}

// acceptReport decodes and applies a device report, writing the error response itself.
func (h *Handler) acceptReport(c *gin.Context) (models.Snapshot, bool) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadJSON})
		return models.Snapshot{}, false
	}
	report, err := service.ParseReport(body)
	if err != nil {
		if h.log != nil {
			h.log.Infow("device_report_rejected", "err", err, "bytes", len(body))
		}
		h.respondServiceError(c, "device_report_failed", err)
		return models.Snapshot{}, false
	}
	snap, err := h.services.Device.Report(c.Request.Context(), report)
	if err != nil {
		h.respondServiceError(c, "device_report_failed", err)
		return models.Snapshot{}, false
	}
	return snap, true
}

// @Summary      Device report
// @Description  Telemetry and reported relay states. Numbers may be sent as strings; relay values other than on/off are ignored.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body   map[string]interface{}  true  "temperature, humidity, soil, time, relayN"
// @Success      200   {object}  map[string]interface{}  "reconciled snapshot"
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/device/report [post]
func (h *Handler) deviceReport(c *gin.Context) {
	snap, ok := h.acceptReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// legacySensorData answers in plain text like the firmware expects.
func (h *Handler) legacySensorData(c *gin.Context) {
	if _, ok := h.acceptReport(c); !ok {
		return
	}
	c.String(http.StatusOK, "OK")
}

// @Summary      Device heartbeat
// @Tags         device
// @Success      204
// @Router       /api/v1/device/ping [post]
func (h *Handler) devicePing(c *gin.Context) {
	h.services.Device.Heartbeat()
	c.Status(http.StatusNoContent)
}

// @Summary      Refresh token
// @Description  Changes whenever operator intent changes; the device re-fetches relays and thresholds when it differs from the last one seen.
// @Tags         device
// @Produce      json
// @Success      200  {object}  refreshResponse
// @Router       /api/v1/device/refresh [get]
func (h *Handler) getRefreshToken(c *gin.Context) {
	c.JSON(http.StatusOK, newRefreshResponse(h.services.Device.RefreshToken()))
}

// @Summary      Device status
// @Tags         device
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /api/v1/device/status [get]
func (h *Handler) getDeviceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, newStatusResponse(h.services.Device.Connectivity()))
}
