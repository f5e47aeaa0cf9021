package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyleguay/fitlog/internal/diet"
)

// getDailyLog returns the ledger for a day, creating it on first access.
// GET /api/diet/daily-log?date=YYYY-MM-DD (date defaults to today, UTC).
func (h *Handler) getDailyLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q dayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	day, err := dayOrZero(q.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	log, err := h.diet.GetDailyLog(c.Request.Context(), userID, day)
	if err != nil {
		h.respondError(c, err, "failed to fetch daily log")
		return
	}
	c.JSON(http.StatusOK, log)
}

// recalculateDailyLog re-sums caloriesIn from stored meals.
// POST /api/diet/daily-log/recalculate?date=YYYY-MM-DD. 404 when the day has
// no ledger.
func (h *Handler) recalculateDailyLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q dayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	day, err := dayOrZero(q.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	log, err := h.diet.RecalculateCalories(c.Request.Context(), userID, day)
	if err != nil {
		h.respondError(c, err, "failed to recalculate daily log")
		return
	}
	if log == nil {
		apiError(c, http.StatusNotFound, "daily log not found")
		return
	}
	c.JSON(http.StatusOK, log)
}

// listDailyLogs returns a page of ledgers and the total matching count.
// GET /api/diet/daily-logs?start=&end=&order=asc|desc&page=&page_size=&include_meals=
func (h *Handler) listDailyLogs(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q logListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	from, err := optionalDay(q.Start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	to, err := optionalDay(q.End)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}

	lq := diet.LogQuery{From: from, To: to, Order: q.Order, Page: diet.PageOf(q.Page, q.PageSize)}
	ctx := c.Request.Context()
	logs, err := h.diet.ListDailyLogs(ctx, userID, lq, q.IncludeMeals)
	if err != nil {
		h.respondError(c, err, "failed to fetch daily logs")
		return
	}
	total, err := h.diet.CountDailyLogs(ctx, userID, lq)
	if err != nil {
		h.respondError(c, err, "failed to fetch daily logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}

// getDailyLogByID returns one of the caller's ledgers with meals.
// GET /api/diet/daily-logs/:id
func (h *Handler) getDailyLogByID(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	log, err := h.diet.GetDailyLogByID(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err, "failed to fetch daily log")
		return
	}
	c.JSON(http.StatusOK, log)
}

// getHistory returns the last N days of ledgers, newest first, with meals.
// GET /api/diet/history?days=30
func (h *Handler) getHistory(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	logs, err := h.diet.History(c.Request.Context(), userID, q.Days)
	if err != nil {
		h.respondError(c, err, "failed to fetch history")
		return
	}
	c.JSON(http.StatusOK, logs)
}

// getInsights returns the calorie dashboard.
// GET /api/diet/insights?range=7|14|30&start=&end=&status=&page=
func (h *Handler) getInsights(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q insightsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	start, err := optionalDay(q.Start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	end, err := optionalDay(q.End)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}

	insights, err := h.diet.Insights(c.Request.Context(), userID, diet.InsightsQuery{
		RangeDays: q.Range,
		Start:     start,
		End:       end,
		Status:    q.Status,
		Page:      q.Page,
	})
	if err != nil {
		h.respondError(c, err, "failed to build insights")
		return
	}
	c.JSON(http.StatusOK, insights)
}

// updateGoal changes the fitness goal, target weight or manual target.
// PATCH /api/diet/goal. Body: { "fitness_goal"?, "target_weight"?, "manual_calorie_target"? }
func (h *Handler) updateGoal(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body goalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.diet.UpdateGoal(c.Request.Context(), userID, body.input())
	if err != nil {
		h.respondError(c, err, "failed to update goal")
		return
	}
	c.JSON(http.StatusOK, u)
}

// checkIn logs today's weight and applies goal changes in one call.
// POST /api/diet/check-in. Body: { "weight", "fitness_goal"?, "target_weight"?, "manual_calorie_target"? }
func (h *Handler) checkIn(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body checkInRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.progress.DailyCheckIn(c.Request.Context(), userID, diet.CheckInInput{
		Weight:    body.Weight,
		GoalInput: body.input(),
	})
	if err != nil {
		h.respondError(c, err, "failed to save check-in")
		return
	}
	c.JSON(http.StatusOK, u)
}
