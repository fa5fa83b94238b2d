package middlewares

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/moyoez/cutqueue/tool"
	"golang.org/x/time/rate"
)

// IntakeRateLimiter bounds how often a client may submit files. perSecond <= 0
// disables the limit. Each client IP gets its own token bucket.
func IntakeRateLimiter(perSecond, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = perSecond
	}
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		mu.Lock()
		limiter, ok := limiters[key]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[key] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			tool.DefaultLogger.Debugf("Rate limited %s on %s", c.ClientIP(), c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, tool.FastReturnError("too many requests"))
			return
		}
		c.Next()
	}
}
