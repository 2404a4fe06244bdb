package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"relay_hub/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Thresholds
// @Description  Opaque key/value settings the device applies in its own control loop.
// @Tags         thresholds
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/thresholds [get]
func (h *Handler) getThresholds(c *gin.Context) {
	t, err := h.services.Thresholds.GetThresholds(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "thresholds_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Replace thresholds
// @Tags         thresholds
// @Accept       json
// @Produce      json
// @Param        body  body   map[string]string  true  "threshold values"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/thresholds [put]
func (h *Handler) putThresholds(c *gin.Context) {
	t, ok := h.bindThresholds(c)
	if !ok {
		return
	}
	saved, err := h.services.Thresholds.SetThresholds(c.Request.Context(), t)
	if err != nil {
		h.respondServiceError(c, "thresholds_set_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// legacyUpdateThresholds accepts the dashboard's form post.
func (h *Handler) legacyUpdateThresholds(c *gin.Context) {
	t, ok := h.bindThresholds(c)
	if !ok {
		return
	}
	if _, err := h.services.Thresholds.SetThresholds(c.Request.Context(), t); err != nil {
		h.respondServiceError(c, "thresholds_set_failed", err)
		return
	}
	c.String(http.StatusOK, "Updated")
}

// bindThresholds reads a JSON object or a url-encoded form. JSON numbers and
// booleans are kept in their textual form; nulls are dropped.
func (h *Handler) bindThresholds(c *gin.Context) (models.Thresholds, bool) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return nil, false
		}
		out := make(models.Thresholds, len(raw))
		for k, v := range raw {
			switch tv := v.(type) {
			case nil:
			case string:
				out[k] = tv
			case json.Number:
				out[k] = tv.String()
			default:
				out[k] = fmt.Sprint(tv)
			}
		}
		return out, true
	}

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return nil, false
	}
	out := make(models.Thresholds, len(c.Request.PostForm))
	for k := range c.Request.PostForm {
		out[k] = c.Request.PostForm.Get(k)
	}
	return out, true
}
