package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to every request and reports panics
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports errors attached with c.Error to Sentry after the handler ran
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
			hub.Scope().SetTag("endpoint", c.FullPath())
		}

		for _, ginErr := range c.Errors {
			errors.CaptureErrorWithContext(c.Request.Context(), ginErr.Err, map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.Request.URL.Path,
				"status_code": statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		}
	}
}

// Recovery turns panics into the standard 500 envelope after Sentry has seen them
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		hub := sentrygin.GetHubFromContext(c)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}
		hub.RecoverWithContext(c.Request.Context(), recovered)

		common.ErrorResponse(c, http.StatusInternalServerError, "an unexpected error occurred")
		c.Abort()
	})
}
