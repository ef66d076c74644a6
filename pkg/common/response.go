package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/pkg/tracing"
)

// Response is the envelope of every API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request. TraceID is set when the request was traced.
type ErrorInfo struct {
	Code      int               `json:"code"`
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
}

// Meta contains metadata for paginated responses
type Meta struct {
	Limit  int   `json:"limit,omitempty"`
	Offset int   `json:"offset,omitempty"`
	Total  int64 `json:"total"`
}

// SuccessResponse sends a 200 envelope
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessResponseWithMeta sends a 200 envelope with pagination metadata
func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// CreatedResponse sends a 201 envelope
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// ErrorResponse sends an error envelope with a plain message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	writeError(c, &ErrorInfo{Code: statusCode, Message: message})
}

// AppErrorResponse sends an AppError. Server-side failures are also attached
// to the gin context so the error tracking middleware reports them.
func AppErrorResponse(c *gin.Context, err *AppError) {
	if err.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	writeError(c, &ErrorInfo{
		Code:      err.Code,
		ErrorCode: err.ErrorCode,
		Message:   err.Message,
		Fields:    err.Fields,
	})
}

func writeError(c *gin.Context, info *ErrorInfo) {
	if c.Request != nil {
		info.TraceID = tracing.GetTraceID(c.Request.Context())
	}
	c.JSON(info.Code, Response{Success: false, Error: info})
}
