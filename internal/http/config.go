package http

import (
	"github.com/mrlokans/marked/internal/auth"
	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/ratelimit"
	"github.com/mrlokans/marked/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database Pinger
	Jobs     ImportJobStore
	Links    LinkStore
	Folders  FolderStore
	Tags     TagStore
	Auditor  Auditor // optional

	// Import execution
	Dispatcher    tasks.Dispatcher
	Canonicalizer *canonical.Canonicalizer
	Import        config.Import

	// Authentication; nil injects the default user
	AuthMiddleware *auth.Middleware

	// Per-user upload limiter (optional)
	UploadLimiter *ratelimit.KeyedRateLimiter

	// Serve Strict-Transport-Security (behind TLS termination)
	HSTS bool

	Logger  logger.Logger
	Version string
}
