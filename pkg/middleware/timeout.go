package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout answers 504 when the handler does not finish within d.
// Form submissions stream files and are mounted without it.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			logger.WarnContext(c.Request.Context(), "Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Duration("timeout", d),
			)
			common.ErrorResponse(c, http.StatusGatewayTimeout, "request timeout")
		}),
	)
}
