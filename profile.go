package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyleguay/fitlog/internal/diet"
)

// getProfile returns the caller's profile with its completeness status.
// GET /api/profile
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")
	u, err := h.db.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "status": diet.GetProfileStatus(u)})
}

// updateProfile replaces the profile and resyncs today's ledger.
// PUT /api/profile
func (h *Handler) updateProfile(c *gin.Context) {
	userID := c.GetInt("user_id")
	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.progress.UpdateProfile(c.Request.Context(), userID, body.input())
	if err != nil {
		h.respondError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "status": diet.GetProfileStatus(u)})
}
