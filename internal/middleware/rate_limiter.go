package middleware

import (
	"net/http"
	"os"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"prepsphere-backend/internal/utilities"
)

const defaultReqPerSec = 5

// limiterKey buckets authenticated callers by user id and everyone else by
// client IP, so anonymous traffic cannot exhaust a user's budget.
func limiterKey(c *gin.Context) string {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		return "ip: " + c.ClientIP()
	}
	return "user: " + strconv.FormatUint(uint64(user.ID), 10)
}

func limiterExceeded(c *gin.Context, _ ratelimit.Info) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "Too many requests. Please try again later.",
	})
}

// RateLimiterMiddleware limits each caller to reqPerSec requests per second.
func RateLimiterMiddleware(reqPerSec uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: reqPerSec,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      limiterKey,
		ErrorHandler: limiterExceeded,
	})
}

// EnvRateLimitMiddleware builds the limiter from RATE_LIMIT_REQUESTS_PER_SECOND,
// falling back to a small default when unset or invalid.
func EnvRateLimitMiddleware() gin.HandlerFunc {
	limit, err := strconv.Atoi(os.Getenv("RATE_LIMIT_REQUESTS_PER_SECOND"))
	if err != nil || limit <= 0 {
		limit = defaultReqPerSec
	}
	return RateLimiterMiddleware(uint(limit))
}
