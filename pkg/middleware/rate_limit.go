package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/logger"
	"github.com/richxcame/fleet/pkg/ratelimit"
	"go.uber.org/zap"
)

// CodeRateLimited is the error code of a throttled request
const CodeRateLimited = "rate_limited"

// Limiter decides whether a client may proceed
type Limiter interface {
	Allow(ctx context.Context, scope, identity string) (ratelimit.Result, error)
}

// RateLimit throttles requests per client IP within scope.
// Limiter failures let the request through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if identity == "" {
			identity = "unknown"
		}

		result, err := limiter.Allow(c.Request.Context(), scope, identity)
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limit evaluation failed",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(seconds(result.ResetAfter)))

		if result.Allowed {
			c.Next()
			return
		}

		retry := seconds(result.RetryAfter)
		if retry <= 0 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))

		logger.WarnContext(c.Request.Context(), "rate limit exceeded",
			zap.String("scope", scope),
			zap.String("identity", identity),
			zap.Int("retry_after_seconds", retry),
		)
		common.AppErrorResponse(c, &common.AppError{
			Code:      http.StatusTooManyRequests,
			ErrorCode: CodeRateLimited,
			Message:   "too many submissions, retry later",
		})
		c.Abort()
	}
}

func seconds(d time.Duration) int {
	s := int(d.Round(time.Second) / time.Second)
	if s < 0 {
		return 0
	}
	return s
}
