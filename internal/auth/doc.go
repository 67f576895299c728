// Package auth provides request identity for the HTTP API.
//
// It supports two authentication modes:
//   - "none": No authentication required (default), all requests use a default user ID
//   - "token": Every /api request carries "Authorization: Bearer <token>" issued by
//     the create-user command
//
// # Configuration
//
//	AUTH_MODE=none   # Default, no auth required
//	AUTH_MODE=token  # Bearer tokens
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService := auth.NewService(users.NewRepository(db), cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, cfg.Auth, log)
//	router.Use(authMiddleware.Handler())
//
// Extract user in handlers:
//
//	userID := auth.GetUserID(c)  // Returns DefaultUserID in "none" mode
package auth
