package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"berthops/pkg/redis"
	"berthops/pkg/response"
)

// rateLimiter 固定窗口计数器，由 pkg/redis 实现
type rateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 批处理触发接口的限流中间件
// 已认证请求按用户计数，否则按来源 IP；每个路由模板单独计数。
// rdb 为 nil 或 Redis 出错时放行。
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(rdb, limit, window)
}

func rateLimit(l rateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(c *gin.Context) {
		allowed, err := l.CheckRateLimit(c.Request.Context(), rateLimitKey(c), limit, window)
		if err != nil || allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", retryAfter)
		response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
		c.Abort()
	}
}

func rateLimitKey(c *gin.Context) string {
	subject := "ip:" + c.ClientIP()
	if uid := c.GetString("user_id"); uid != "" {
		subject = "u:" + uid
	}
	return "rate_limit:" + subject + ":" + c.FullPath()
}
