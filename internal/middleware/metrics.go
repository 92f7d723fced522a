package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
)

// Metrics records request count and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(ctx.Writer.Status())
		metrics.HTTPRequests.WithLabelValues(ctx.Request.Method, route, status).Inc()
		metrics.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
