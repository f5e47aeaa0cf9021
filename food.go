package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyleguay/fitlog/internal/diet"
)

// listFoods returns the catalog and the caller's personal foods.
// GET /api/foods?search=&scope=all|catalog|personal&page=&page_size=
// Response: { "foods": [...], "total": n }.
func (h *Handler) listFoods(c *gin.Context) {
	userID := c.GetInt("user_id")
	var q foodListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}
	fq := diet.FoodQuery{Search: q.Search, Scope: q.Scope, Page: diet.PageOf(q.Page, q.PageSize)}

	ctx := c.Request.Context()
	foods, err := h.foods.ListFoods(ctx, userID, fq)
	if err != nil {
		h.respondError(c, err, "failed to fetch foods")
		return
	}
	total, err := h.foods.CountFoods(ctx, userID, fq)
	if err != nil {
		h.respondError(c, err, "failed to fetch foods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods, "total": total})
}

// getFood returns a catalog food or one of the caller's own.
// GET /api/foods/:id
func (h *Handler) getFood(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	food, err := h.foods.GetFood(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err, "failed to fetch food")
		return
	}
	c.JSON(http.StatusOK, food)
}

// createFood adds a personal food owned by the caller.
// POST /api/foods
func (h *Handler) createFood(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body foodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	food, err := h.foods.CreatePersonalFood(c.Request.Context(), userID, body.input())
	if err != nil {
		h.respondError(c, err, "failed to create food")
		return
	}
	c.JSON(http.StatusCreated, food)
}

// updateFood edits a personal food. Logged meals keep their snapshots.
// PUT /api/foods/:id
func (h *Handler) updateFood(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body foodRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	food, err := h.foods.UpdateFood(c.Request.Context(), userID, id, body.input())
	if err != nil {
		h.respondError(c, err, "failed to update food")
		return
	}
	c.JSON(http.StatusOK, food)
}

// deleteFood removes a personal food.
// DELETE /api/foods/:id
func (h *Handler) deleteFood(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.foods.DeleteFood(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, "failed to delete food")
		return
	}
	c.Status(http.StatusNoContent)
}
