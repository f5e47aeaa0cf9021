package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// createMeal logs a meal and returns the recalculated ledger.
// POST /api/diet/meals. Body: { "type", "items": [{ "food_id", "portion" }], "date"? }
func (h *Handler) createMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	in, err := body.input()
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	log, err := h.diet.AddMeal(c.Request.Context(), userID, in)
	if err != nil {
		h.respondError(c, err, "failed to add meal")
		return
	}
	c.JSON(http.StatusCreated, log)
}

// updateMeal replaces a meal's type and items. The meal stays on its day.
// PUT /api/diet/meals/:id
func (h *Handler) updateMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	in, err := body.input()
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	log, err := h.diet.UpdateMeal(c.Request.Context(), userID, id, in)
	if err != nil {
		h.respondError(c, err, "failed to update meal")
		return
	}
	c.JSON(http.StatusOK, log)
}

// deleteMeal removes a meal and returns the recalculated ledger.
// DELETE /api/diet/meals/:id
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	log, err := h.diet.DeleteMeal(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err, "failed to delete meal")
		return
	}
	c.JSON(http.StatusOK, log)
}
