package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/ratelimit"
)

const contextKeyLogger = "logger"

// AccessLogMiddleware writes one http_request entry per request and makes
// log available to handlers through requestLogger.
func AccessLogMiddleware(log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(contextKeyLogger, log)

		c.Next()

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Int("bytes", c.Writer.Size()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.String("user_agent", c.Request.UserAgent()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("http_request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}

// requestLogger returns the logger installed by AccessLogMiddleware.
func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get(contextKeyLogger); ok {
		if log, ok := v.(logger.Logger); ok {
			return log
		}
	}
	return logger.Nop()
}

// RateLimitMiddleware rejects requests once the user's bucket is empty.
// It must run after the auth middleware so the user id is known.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := strconv.FormatUint(uint64(GetUserID(c)), 10)
		if !limiter.Allow(key) {
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "too many uploads, try again later",
				Code:  codeRateLimited,
			})
			return
		}
		c.Next()
	}
}
