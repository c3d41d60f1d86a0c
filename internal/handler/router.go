package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/questionbank-api/internal/metrics"
	"github.com/yourusername/questionbank-api/internal/middleware"
)

// RouterDeps: зависимости для сборки маршрутов
type RouterDeps struct {
	Questions  *QuestionHandler
	Moderation *ModerationHandler
	Auth       *middleware.AuthMiddleware
	// RateLimiter может быть nil: тогда ограничение частоты отключено
	RateLimiter    *middleware.RateLimiter
	PublicLimit    middleware.RateLimitConfig
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Без Redis лимитеры заменяются пустым звеном цепочки
	public, report := gin.HandlerFunc(func(c *gin.Context) { c.Next() }), gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if deps.RateLimiter != nil {
		public = deps.RateLimiter.Limit(deps.PublicLimit)
		report = deps.RateLimiter.LimitByIP(middleware.ReportRateLimitConfig())
	}

	api := router.Group("/api")
	{
		q := deps.Questions
		api.GET("/query", public, q.Search)
		api.GET("/packet", public, q.GetPacket)
		api.GET("/set", public, q.GetSet)
		api.GET("/set/export", public, q.ExportSet)
		api.GET("/random-tossup", public, q.GetRandomTossups)
		api.GET("/random-bonus", public, q.GetRandomBonuses)
		api.GET("/set-list", q.GetSetList)
		api.GET("/num-packets", q.GetNumPackets)
		api.POST("/report-question", report, q.ReportQuestion)

		admin := api.Group("/admin")
		admin.Use(deps.Auth.RequireModerator())
		{
			m := deps.Moderation
			admin.GET("/list-reports", m.ListReports)
			admin.PUT("/update-subcategory", m.UpdateSubcategory)
			admin.GET("/question/:type/:id",
				middleware.ExtractKindParam("type", "questionKind"),
				middleware.ExtractUUIDParam("id", "questionID"),
				m.GetQuestion,
			)
		}
	}

	return router
}
