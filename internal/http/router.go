package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/auth"
	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/logger"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	canon := cfg.Canonicalizer
	if canon == nil {
		canon = canonical.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(AccessLogMiddleware(log.Named("http")))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Import endpoints
	imports := NewImportsController(cfg.Jobs, cfg.Dispatcher, cfg.Import)
	api.POST("/imports", RateLimitMiddleware(cfg.UploadLimiter), imports.Upload)
	api.POST("/imports/detect", imports.Detect)
	api.GET("/imports", imports.List)
	api.GET("/imports/:id", imports.Get)

	// Link endpoints
	links := NewLinksController(cfg.Links, cfg.Folders, canon, cfg.Auditor)
	api.GET("/links", links.List)
	api.POST("/links", links.Create)
	api.GET("/links/:id", links.Get)
	api.PATCH("/links/:id", links.Update)

	// Folder endpoints
	folders := NewFoldersController(cfg.Folders, cfg.Auditor)
	api.GET("/folders", folders.List)
	api.PATCH("/folders/:id", folders.Update)

	// URL utilities
	urls := NewURLsController(canon)
	api.GET("/urls/canonical", urls.Canonical)
	api.GET("/urls/equivalent", urls.Equivalent)

	// Tags
	if cfg.Tags != nil {
		tags := NewTagsController(cfg.Tags)
		api.GET("/tags", tags.List)
	}

	// Audit trail
	if cfg.Auditor != nil {
		audit := NewAuditController(cfg.Auditor)
		api.GET("/audit/imports", audit.ListImports)
	}

	return router
}
