package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimit allows limit requests per client IP and scope in each window.
// Counters live in Redis so the limit holds across instances; with no
// client the middleware is a pass-through. Redis errors fail open.
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		bucket := time.Now().Unix() / int64(window.Seconds())
		key := "ratelimit:" + scope + ":" + c.ClientIP() + ":" + strconv.FormatInt(bucket, 10)

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithError(err).Warn("rate limit counter unavailable")
			c.Next()
			return
		}
		if n == 1 {
			rdb.Expire(ctx, key, window)
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			abort(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-n, 10))
		c.Next()
	}
}
