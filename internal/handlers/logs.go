package handlers

import (
	"net/http"
	"strings"
	"time"

	"relay_hub/internal/models"
	"relay_hub/internal/service"

	"github.com/gin-gonic/gin"
)

const maxLogLimit = 1000

// queryTimeLayouts are tried in order; the last one is date-only.
var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

var knownEventTypes = map[string]struct{}{
	models.EventModeChange:   {},
	models.EventConnectivity: {},
	models.EventThresholds:   {},
}

type logsQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Type  string `form:"type"`
	Relay string `form:"relay"`
	Limit int    `form:"limit"`
}

// filter turns the raw query into a service filter. A date-only "to" covers
// the whole day.
func (q logsQuery) filter() (service.LogFilter, string, string) {
	var f service.LogFilter
	if q.From != "" {
		t, ok := parseQueryTime(q.From, false)
		if !ok {
			return f, "from", "invalid 'from' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"
		}
		f.From = t
	}
	if q.To != "" {
		t, ok := parseQueryTime(q.To, true)
		if !ok {
			return f, "to", "invalid 'to' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"
		}
		f.To = t
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, "from", "'from' must be <= 'to'"
	}

	f.Type = strings.ToUpper(strings.TrimSpace(q.Type))
	if _, ok := knownEventTypes[f.Type]; f.Type != "" && !ok {
		return f, "type", "unknown event type " + f.Type
	}
	if q.Limit < 0 || q.Limit > maxLogLimit {
		return f, "limit", "limit must be between 0 and 1000"
	}
	return f, "", ""
}

func parseQueryTime(s string, endOfDay bool) (time.Time, bool) {
	for i, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if endOfDay && i == len(queryTimeLayouts)-1 {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// eventRelay returns the relay a mode change event is about, if any.
func eventRelay(e models.RelayEvent) string {
	meta, ok := e.Metadata.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := meta["relay"].(string)
	return id
}

// @Summary      List relay events
// @Description  Mode changes, device connectivity changes and threshold updates, oldest first. 'to' given as a date covers the whole day. 'relay' keeps only that relay's mode changes; 'limit' keeps the newest n.
// @Tags         logs
// @Produce      json
// @Param        from   query   string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"  example(2025-08-01)
// @Param        to     query   string  false  "End of range, same formats"  example(2025-08-31)
// @Param        type   query   string  false  "Event type"  Enums(MODE_CHANGE,CONNECTIVITY,THRESHOLDS)
// @Param        relay  query   string  false  "Relay id"  example(relay1)
// @Param        limit  query   int     false  "Newest n events (max 1000)"
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, field, msg := q.filter()
	if field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg, "field": field})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
		return
	}

	if relay := strings.TrimSpace(q.Relay); relay != "" {
		kept := events[:0:0]
		for _, e := range events {
			if eventRelay(e) == relay {
				kept = append(kept, e)
			}
		}
		events = kept
	}
	if q.Limit > 0 && len(events) > q.Limit {
		events = events[len(events)-q.Limit:]
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
