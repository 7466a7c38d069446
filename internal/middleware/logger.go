package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"property-recon/pkg/logger"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Process request
		c.Next()

		latency := time.Since(startTime)

		fields := map[string]interface{}{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      c.FullPath(),
			"query":      c.Request.URL.RawQuery,
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"bytes":      c.Writer.Size(),
			"latency":    latency.Milliseconds(),
			"errors":     c.Errors.String(),
		}

		// correlate request logs with run logs where the route carries one
		if runID := c.Param("run_id"); runID != "" {
			fields["run_id"] = runID
		}
		if propertyID := c.Param("property_id"); propertyID != "" {
			fields["property_id"] = propertyID
		}

		logger.GetLogger().WithFields(fields).Info("Request processed")
	}
}
