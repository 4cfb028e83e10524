package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"umuganda/backend/pkg/metrics"
)

// Metrics 请求耗时指标；按路由模板聚合，未匹配路由记为 "unmatched"
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
