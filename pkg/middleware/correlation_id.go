package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/fleet/pkg/logger"
)

const (
	// CorrelationIDHeader carries the request id in both directions
	CorrelationIDHeader = "X-Request-ID"
	// CorrelationIDKey is the gin context key of the request id
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags the request context with a request id and, on routes
// addressing a vehicle, the vehicle id. Caller ids are kept only when they
// are UUIDs.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := parseID(c.GetHeader(CorrelationIDHeader))
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.ContextWithCorrelationID(c.Request.Context(), id)
		if vehicleID := parseID(c.Param("id")); vehicleID != "" {
			ctx = logger.ContextWithVehicleID(ctx, vehicleID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

// GetCorrelationID returns the request id assigned by CorrelationID
func GetCorrelationID(c *gin.Context) string {
	if id := c.GetString(CorrelationIDKey); id != "" {
		return id
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}

func parseID(raw string) string {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return id.String()
}
