package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/auth"
	"github.com/lyleguay/fitlog/internal/diet"
	"github.com/lyleguay/fitlog/internal/store"
)

// Handler holds shared dependencies (services, store, config) for all route handlers.
type Handler struct {
	db            store.DB
	diet          *diet.DietService
	foods         *diet.FoodService
	progress      *diet.ProgressService
	tokens        *auth.Issuer
	log           *zap.SugaredLogger
	openAIBaseURL string // Base URL for OpenAI API (overridable for tests)
	openAIKey     string
}

func newHandler(db store.DB, tokens *auth.Issuer, log *zap.SugaredLogger, openAIBaseURL, openAIKey string) *Handler {
	foods := diet.NewFoodService(db, log)
	ds := diet.NewDietService(db, foods, log)
	return &Handler{
		db:            db,
		diet:          ds,
		foods:         foods,
		progress:      diet.NewProgressService(db, ds, log),
		tokens:        tokens,
		log:           log,
		openAIBaseURL: openAIBaseURL,
		openAIKey:     openAIKey,
	}
}

/* ─── Responses ───────────────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondError maps a service error onto a status code. Internal errors are
// logged and replaced with fallback so no cause leaks to the client.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch diet.KindOf(err) {
	case diet.KindNotFound:
		apiError(c, http.StatusNotFound, diet.Message(err, "not found"))
	case diet.KindInvalidInput, diet.KindInvalidReference:
		apiError(c, http.StatusBadRequest, diet.Message(err, "invalid request"))
	case diet.KindUnauthorized:
		apiError(c, http.StatusUnauthorized, diet.Message(err, "unauthorized"))
	default:
		h.log.Errorw(fallback, "error", err, "path", c.FullPath(), "request_id", c.GetString(requestIDKey))
		apiError(c, http.StatusInternalServerError, fallback)
	}
}

// bindError reports the first failed field of a binding error, using its
// JSON or form name.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		apiError(c, http.StatusBadRequest, "invalid "+verrs[0].Field())
		return
	}
	apiError(c, http.StatusBadRequest, "invalid request body")
}

/* ─── Request helpers ─────────────────────────────────────────────────── */

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// optionalDay parses a YYYY-MM-DD value; empty means unset.
func optionalDay(s string) (*diet.CalendarDay, error) {
	if s == "" {
		return nil, nil
	}
	d, err := diet.ParseDay(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// dayOrZero parses a YYYY-MM-DD value; empty yields the zero day, which the
// services treat as today.
func dayOrZero(s string) (diet.CalendarDay, error) {
	d, err := optionalDay(s)
	if err != nil || d == nil {
		return diet.CalendarDay{}, err
	}
	return *d, nil
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newRouter builds the engine with middleware, CORS and all routes.
func newRouter(h *Handler, corsOrigins []string) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.SetTrustedProxies(nil)
	router.Use(requestID(), requestLogger(h.log), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	h.registerRoutes(router)
	return router
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.POST("/api/login", h.login)
	router.GET("/api/health", h.health)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)

	api.GET("/diet/daily-log", h.getDailyLog)
	api.POST("/diet/daily-log/recalculate", h.recalculateDailyLog)
	api.GET("/diet/daily-logs", h.listDailyLogs)
	api.GET("/diet/daily-logs/:id", h.getDailyLogByID)
	api.GET("/diet/history", h.getHistory)
	api.GET("/diet/insights", h.getInsights)
	api.PATCH("/diet/goal", h.updateGoal)
	api.POST("/diet/check-in", h.checkIn)
	api.POST("/diet/meals", h.createMeal)
	api.PUT("/diet/meals/:id", h.updateMeal)
	api.DELETE("/diet/meals/:id", h.deleteMeal)

	api.GET("/foods", h.listFoods)
	api.POST("/foods", h.createFood)
	api.POST("/foods/suggest", h.suggestFood)
	api.GET("/foods/:id", h.getFood)
	api.PUT("/foods/:id", h.updateFood)
	api.DELETE("/foods/:id", h.deleteFood)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.logWeight)
	api.GET("/progress/calorie-trend", h.getCalorieTrend)
}

// health reports whether the store is reachable.
// GET /api/health (public).
func (h *Handler) health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.Warnw("health check failed", "error", err)
		apiError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
