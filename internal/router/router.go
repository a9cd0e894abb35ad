package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quizprep/quizprep-backend/internal/config"
	"github.com/quizprep/quizprep-backend/internal/handler"
	"github.com/quizprep/quizprep-backend/internal/middleware"
	"github.com/quizprep/quizprep-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt  *handler.AttemptHandler
	Catalog  *handler.CatalogHandler
	Question *handler.QuestionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RequireAdmin(cfg.JWTSecret)

	// Rate limiter for the attempt endpoints: autosave fires on a client
	// timer, so a stuck tab is the realistic abuse case.
	attemptLimiter := middleware.NewRateLimiter(120, time.Minute)

	api := router.Group("/api/v1")

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	attempts := api.Group("/attempts")
	attempts.Use(attemptLimiter.Middleware())
	{
		attempts.POST("/start", handlers.Attempt.StartAttempt)
		attempts.PUT("/:id/autosave", handlers.Attempt.Autosave)
		attempts.POST("/:id/submit", handlers.Attempt.SubmitAttempt)
		attempts.GET("/:id", handlers.Attempt.GetAttempt)
		attempts.GET("/history/:userId", handlers.Attempt.History)
	}

	// ─── Catalog ───────────────────────────────────────────────────────
	{
		api.GET("/semesters", handlers.Catalog.ListSemesters)
		api.POST("/semesters", adminOnly, handlers.Catalog.CreateSemester)

		api.GET("/subjects", handlers.Catalog.ListSubjects)
		api.POST("/subjects", adminOnly, handlers.Catalog.CreateSubject)

		api.GET("/quizzes", handlers.Catalog.ListQuizzes)
		api.POST("/quizzes", adminOnly, handlers.Catalog.CreateQuiz)
		api.POST("/quizzes/import", adminOnly, handlers.Catalog.ImportQuiz)
		api.GET("/quizzes/:id", handlers.Catalog.GetQuiz)
	}

	// ─── Question administration ───────────────────────────────────────
	questions := api.Group("/questions")
	questions.Use(adminOnly)
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.POST("/import", handlers.Question.ImportQuestions)
		questions.PUT("/:id", handlers.Question.UpdateQuestion)
		questions.DELETE("/:id", handlers.Question.DeleteQuestion)
	}

	return router
}
