package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"berthops/pkg/metrics"
)

// Metrics 按路由模板记录请求数与耗时
// 未匹配路由统一记为 unmatched，避免标签基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(endpoint, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
