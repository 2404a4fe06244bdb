package handlers

import (
	"errors"
	"net/http"

	"relay_hub/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errStoreUnavailable = "store unavailable, try again"
	errInternal         = "internal error"
	errBadJSON          = "Bad JSON"
	errInvalidBodyPref  = "invalid body: "

	fieldRelay = "relay"
	fieldMode  = "mode"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError maps service sentinel errors to HTTP codes.
// Validation errors name the offending field so a client can highlight it.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrInvalidRelay):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "field": fieldRelay})
	case errors.Is(err, service.ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": fieldMode})
	case errors.Is(err, service.ErrMalformedReport):
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadJSON})
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logAndJSONError(c, http.StatusServiceUnavailable, errStoreUnavailable, logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

// SetModeRequest is an exported model for Swagger docs of the setRelayMode payload.
type SetModeRequest struct {
	// Mode to set. Allowed: auto, on, off (case-insensitive)
	Mode string `json:"mode" example:"on"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Live snapshot
// @Description  Last reconciled telemetry with forced relay modes overlaid.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "temperature, humidity, soil, time, relayN"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/snapshot [get]
func (h *Handler) getSnapshot(c *gin.Context) {
	snap, err := h.services.Monitoring.GetLiveSnapshot(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "snapshot_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Relay modes
// @Tags         relays
// @Produce      json
// @Success      200  {object}  map[string]string  "relayN: auto|on|off"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/relays [get]
func (h *Handler) getRelays(c *gin.Context) {
	modes, err := h.services.Relays.GetModeMap(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "relays_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, modes)
}

// @Summary      Set one relay mode
// @Tags         relays
// @Accept       json
// @Produce      json
// @Param        relay  path   string          true  "Relay id"  example(relay1)
// @Param        body   body   SetModeRequest  true  "Mode payload"
// @Success      200    {object}  map[string]interface{}  "projected snapshot"
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /api/v1/relays/{relay}/mode [put]
func (h *Handler) setRelayMode(c *gin.Context) {
	var req SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error(), "field": fieldMode})
		return
	}
	relay := c.Param("relay")
	snap, err := h.services.Relays.SetMode(c.Request.Context(), relay, req.Mode)
	if err != nil {
		h.respondServiceError(c, "relay_set_mode_failed", err, "relay", relay, "mode", req.Mode)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Set several relay modes
// @Description  All-or-nothing: one invalid relay or mode rejects the whole request.
// @Tags         relays
// @Accept       json
// @Produce      json
// @Param        body  body   map[string]string  true  "relay -> auto|on|off"
// @Success      200   {object}  map[string]interface{}  "projected snapshot"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/relays [post]
func (h *Handler) setRelays(c *gin.Context) {
	modes, ok := h.bindModes(c)
	if !ok {
		return
	}
	snap, err := h.services.Relays.SetModes(c.Request.Context(), modes)
	if err != nil {
		h.respondServiceError(c, "relay_set_modes_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// legacyUpdateRelays answers the dashboard's form of setRelays with a bare status.
func (h *Handler) legacyUpdateRelays(c *gin.Context) {
	modes, ok := h.bindModes(c)
	if !ok {
		return
	}
	if _, err := h.services.Relays.SetModes(c.Request.Context(), modes); err != nil {
		h.respondServiceError(c, "relay_set_modes_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) bindModes(c *gin.Context) (map[string]string, bool) {
	var modes map[string]string
	if err := c.ShouldBindJSON(&modes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error(), "field": fieldMode})
		return nil, false
	}
	return modes, true
}
