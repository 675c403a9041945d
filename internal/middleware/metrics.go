package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huddlechat/huddle-backend/internal/metrics"
)

// Metrics records API requests by route family. The scrape endpoint and
// websocket upgrades are skipped; live traffic has its own collectors.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" || isUpgrade(c) {
			c.Next()
			return
		}

		done := metrics.HTTPStarted()
		start := time.Now()

		c.Next()

		done()
		metrics.ObserveHTTP(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
			c.Writer.Size(),
		)
	}
}

func isUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
