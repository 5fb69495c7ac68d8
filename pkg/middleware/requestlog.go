package middleware

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/showgate/ticketd/pkg/logger"
)

// RequestLogConfig holds configuration for the request logging middleware
type RequestLogConfig struct {
	// SkipPaths is a list of paths to skip logging
	SkipPaths []string
}

// DefaultRequestLogConfig returns default configuration
func DefaultRequestLogConfig() *RequestLogConfig {
	return &RequestLogConfig{
		SkipPaths: []string{"/health", "/ready"},
	}
}

// RequestLog assigns each request an ID, threads it through the context for
// the logger, and logs one structured line per request.
func RequestLog(log *logger.Logger, config *RequestLogConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRequestLogConfig()
	}
	return func(c *gin.Context) {
		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", clientIP(c)),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.ErrorContext(ctx, "request completed", fields...)
		case c.Writer.Status() >= 400:
			log.WarnContext(ctx, "request completed", fields...)
		default:
			log.InfoContext(ctx, "request completed", fields...)
		}
	}
}

// clientIP extracts the client IP address, honoring proxy headers
func clientIP(c *gin.Context) string {
	xff := c.GetHeader("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := c.GetHeader("X-Real-IP")
	if xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
