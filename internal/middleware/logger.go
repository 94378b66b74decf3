package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"Yatube/internal/logging"
	"Yatube/internal/metrics"
)

// AccessLog logs every request through zerolog and records its metrics.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, route, status, elapsed)

		log := logging.Ctx(c.Request.Context())
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
