package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/lshigami/skillcheck/internal/apperr"
)

// Allower decides whether a request keyed by caller may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit throttles per authenticated subject, falling back to the client IP.
// Register it after RequireAuth to key on the subject.
func RateLimit(limiter Allower) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if p, ok := CurrentPrincipal(c); ok {
			key = "sub:" + p.Subject
		}
		if !limiter.Allow(key) {
			abort(c, apperr.New(apperr.CodeRateLimited, "too many requests, slow down"))
			return
		}
		c.Next()
	}
}
