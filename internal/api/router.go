package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/content-lifecycle-api/internal/config"
	"github.com/content-lifecycle-api/internal/models"
	"github.com/content-lifecycle-api/internal/service"
	"github.com/content-lifecycle-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EventStream is the subscriber side of the event sink
type EventStream interface {
	Subscribe() (string, <-chan models.Event)
	Unsubscribe(id string)
}

// HealthChecker reports whether the backing store is reachable and how its
// connection pool is doing
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, stream EventStream, health HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	timeout := cfg.Server.RequestTimeout
	contentHandler := NewContentHandler(services, timeout, log)
	adminHandler := NewAdminHandler(services, stream, timeout, log)
	publicHandler := NewPublicHandler(services, timeout, log)

	// Health check
	router.GET("/health", healthCheck(health))

	v1 := router.Group("/v1")
	{
		admin := v1.Group("/admin", requireAdmin())
		{
			admin.POST("/content/:kind", contentHandler.Create)
			admin.GET("/content/:kind", contentHandler.List)
			admin.GET("/content/:kind/:id", contentHandler.Get)
			admin.PATCH("/content/:kind/:id", contentHandler.Update)
			admin.DELETE("/content/:kind/:id", contentHandler.Delete)
			admin.POST("/content/:kind/:id/restore", contentHandler.Restore)

			admin.GET("/recycle-bin", contentHandler.RecycleBin)
			admin.DELETE("/recycle-bin", contentHandler.EmptyRecycleBin)

			admin.POST("/tags/rename", adminHandler.RenameTag)
			admin.POST("/tags/merge", adminHandler.MergeTags)
			admin.GET("/tags", adminHandler.ListTags)

			admin.GET("/audit", adminHandler.ListAudit)
			admin.DELETE("/audit", adminHandler.PurgeAudit)

			admin.POST("/api-keys", adminHandler.CreateAPIKey)
			admin.GET("/api-keys", adminHandler.ListAPIKeys)
			admin.PATCH("/api-keys/:id", adminHandler.SetAPIKeyActive)
			admin.DELETE("/api-keys/:id", adminHandler.DeleteAPIKey)

			admin.POST("/scheduler/tick", adminHandler.Tick)
			admin.GET("/events", adminHandler.StreamEvents)
		}

		public := v1.Group("/public", requireAPIKey(services.APIKey, log))
		{
			public.GET("/articles", publicHandler.ListArticles)
			public.GET("/articles/:slug", publicHandler.GetArticle)
			public.GET("/media", publicHandler.ListMedia)
			public.GET("/search", publicHandler.Search)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		body := gin.H{
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		}
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
			stats := health.Stats()
			body["database"] = gin.H{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
				"wait_count":       stats.WaitCount,
			}
		}
		body["status"] = status
		c.JSON(code, body)
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
