package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campaigndash/internal/insights"
	"campaigndash/internal/metrics"
)

func (h HandlerSet) MonthlyInsights(c *gin.Context) {
	kind := metrics.Clicks
	if raw := c.Query("metric"); raw != "" {
		parsed, err := metrics.ParseKind(raw)
		if err != nil {
			detail(c, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}

	samples, err := h.insights.Monthly(c.Request.Context(), c.Query("since"), c.Query("until"), kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

func (h HandlerSet) AllTimeInsights(c *gin.Context) {
	limit := insights.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > insights.MaxLimit {
			detail(c, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(insights.MaxLimit))
			return
		}
		limit = v
	}

	rows, err := h.insights.AllTime(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
