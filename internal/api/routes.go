package api

import (
	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/roster/internal/infrastructure/gin"
)

// Handlers groups the handlers mounted by SetupRoutes. Auth is nil when login is disabled.
type Handlers struct {
	Contacts *ContactHandler
	Crawl    *CrawlHandler
	Auth     *AuthHandler
}

// SetupRoutes configures all API routes.
// Login is public. Everything else requires a bearer token when jwtSecret is set.
func SetupRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	public, protected := infragin.SetupAPIRoutesWithPublic(router, jwtSecret)

	if h.Auth != nil {
		public.POST("/auth/login", h.Auth.Login)
	}

	contacts := protected.Group("/contacts")
	contacts.GET("", h.Contacts.List)
	contacts.POST("", h.Contacts.Create)
	contacts.GET("/search", h.Contacts.Search)
	contacts.GET("/paginated", h.Contacts.Paginate)
	contacts.GET("/positions", h.Contacts.Positions)
	contacts.GET("/export", h.Contacts.Export)
	contacts.DELETE("/by-name/:name", h.Contacts.DeleteByName)
	contacts.GET("/:id", h.Contacts.Get)
	contacts.PUT("/:id", h.Contacts.Update)
	contacts.DELETE("/:id", h.Contacts.DeleteByID)

	crawl := protected.Group("/crawl")
	crawl.POST("", h.Crawl.Trigger)
	crawl.GET("/status", h.Crawl.Status)
	crawl.GET("/runs", h.Crawl.ListRuns)
	crawl.GET("/runs/:id", h.Crawl.GetRun)
}
