package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getWeightLog returns the caller's weigh-ins of the last N days, oldest first.
// GET /api/weight-log?days=30. Returns an empty array (not null) if none exist.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	entries, err := h.progress.WeightProgress(c.Request.Context(), userID, q.Days)
	if err != nil {
		h.respondError(c, err, "failed to fetch weight log")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// logWeight creates or updates the weigh-in for a day.
// POST /api/weight-log. Body: { "weight": 79.5, "date"?: "YYYY-MM-DD" }.
// Posting the same date again updates in place.
func (h *Handler) logWeight(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body weightRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	day, err := dayOrZero(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	entry, err := h.progress.LogWeight(c.Request.Context(), userID, body.Weight, day)
	if err != nil {
		h.respondError(c, err, "failed to save weight")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// getCalorieTrend returns one point per logged day in the last N days.
// GET /api/progress/calorie-trend?days=30
func (h *Handler) getCalorieTrend(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	points, err := h.progress.CalorieTrend(c.Request.Context(), userID, q.Days)
	if err != nil {
		h.respondError(c, err, "failed to fetch calorie trend")
		return
	}
	c.JSON(http.StatusOK, points)
}
