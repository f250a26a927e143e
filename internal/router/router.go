package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/handler"
	"github.com/stemsi/examforge/internal/middleware"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/session"
)

const uploadsPrefix = "/uploads"

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Test     *handler.TestHandler
	Draft    *handler.DraftHandler
	Viewer   *handler.ViewerHandler
	Media    *handler.MediaHandler
	Session  *handler.SessionHandler
}

// Guards carries what the session and role middlewares need.
type Guards struct {
	Verifier middleware.TokenVerifier
	Hub      *session.Hub
	Roles    middleware.RoleResolver
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(guards Guards, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	brotliCfg := middleware.DefaultBrotliConfig
	brotliCfg.SkipPrefixes = []string{uploadsPrefix}
	router.Use(middleware.BrotliWithConfig(brotliCfg))

	// Uploaded images are content-addressed by a fresh UUID, so they never change.
	uploadsGroup := router.Group(uploadsPrefix)
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	requireSession := middleware.RequireSession(guards.Verifier, guards.Hub)

	// ─── 1. Auth Group (Rate Limited) ──────────────────────────────────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", requireSession, handlers.Auth.Logout)
		auth.GET("/me", requireSession, handlers.Auth.GetProfile)
		auth.PUT("/me", requireSession, handlers.Auth.UpdateProfile)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireSession)
	{
		ws.GET("/session", handlers.Session.SessionStream)
	}

	// ─── 3. Admin Group (Session + Admin Role) ─────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireSession, middleware.RequireAdmin(guards.Roles))
	{
		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.GET("/questions/:id", handlers.Question.GetQuestion)

		adminAPI.POST("/media/upload", handlers.Media.UploadMedia)

		adminAPI.GET("/tests", handlers.Test.ListTests)
		adminAPI.GET("/tests/:id", handlers.Test.GetTest)

		drafts := adminAPI.Group("/drafts")
		drafts.Use(middleware.NoStore())
		{
			drafts.GET("", handlers.Draft.ListDrafts)
			drafts.POST("", handlers.Draft.CreateDraft)
			drafts.GET("/:id", handlers.Draft.GetDraft)
			drafts.DELETE("/:id", handlers.Draft.DeleteDraft)
			drafts.PUT("/:id/details", handlers.Draft.UpdateDetails)

			drafts.POST("/:id/sections", handlers.Draft.AddSection)
			drafts.DELETE("/:id/sections/:section_id", handlers.Draft.DeleteSection)
			drafts.POST("/:id/sections/:section_id/expand", handlers.Draft.ToggleExpanded)
			drafts.POST("/:id/sections/:section_id/subsections", handlers.Draft.AddSubsection)
			drafts.DELETE("/:id/sections/:section_id/subsections/:subsection_id", handlers.Draft.DeleteSubsection)

			drafts.PUT("/:id/active", handlers.Draft.SetActive)
			drafts.PUT("/:id/search", handlers.Draft.SetSearch)
			drafts.GET("/:id/questions", handlers.Draft.ListQuestions)
			drafts.POST("/:id/questions/:question_id/toggle", handlers.Draft.ToggleQuestion)
			drafts.PATCH("/:id/questions/:question_id", handlers.Draft.EditMarks)

			drafts.POST("/:id/submit", handlers.Draft.Submit)
		}
	}

	// ─── 4. Student Group (Session + Student Role) ──────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(requireSession, middleware.RequireStudent(guards.Roles), middleware.NoStore())
	{
		studentAPI.GET("/tests", handlers.Test.ListTests)
		studentAPI.POST("/tests/:id/open", handlers.Viewer.OpenTest)
		studentAPI.GET("/tests/:id/current", handlers.Viewer.CurrentQuestion)
		studentAPI.POST("/tests/:id/next", handlers.Viewer.NextQuestion)
		studentAPI.POST("/tests/:id/previous", handlers.Viewer.PreviousQuestion)
		studentAPI.POST("/tests/:id/goto", handlers.Viewer.GoToQuestion)
	}

	return router
}
