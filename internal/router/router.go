package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizbank/backend/internal/config"
	"github.com/quizbank/backend/internal/handler"
	"github.com/quizbank/backend/internal/middleware"
	"github.com/quizbank/backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Question *handler.QuestionHandler
	Upload   *handler.UploadHandler
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
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
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

	// Rate limiter for upload ingestion (30 requests per minute per IP).
	uploadLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── Uploads ───────────────────────────────────────────────────────
	uploads := router.Group("/api/v1/uploads")
	{
		uploads.POST("", uploadLimiter.Middleware(), handlers.Upload.UploadCSV)
		uploads.GET("", handlers.Upload.ListUploads)
		uploads.GET("/:id", handlers.Upload.GetUpload)
	}

	// ─── Questions ─────────────────────────────────────────────────────
	questions := router.Group("/api/v1/questions")
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.GET("/count", handlers.Question.CountQuestions)
		questions.GET("/:id", handlers.Question.GetQuestion)
		questions.POST("", handlers.Question.CreateQuestion)
		questions.DELETE("", handlers.Question.DeleteAllQuestions)
	}

	return router
}
