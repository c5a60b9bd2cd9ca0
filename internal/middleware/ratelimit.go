package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/ratelimit"
)

// RateLimit throttles by client IP. Limiter failures let the request through.
func RateLimit(l ratelimit.Limiter, name string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), name+":"+c.ClientIP())
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable", "limiter", name, "error", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
