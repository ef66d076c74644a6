package common_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		fallbackMsg    string
		expectHandled  bool
		expectStatus   int
		expectContains string
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			fallbackMsg:   "failed",
			expectHandled: false,
		},
		{
			name:           "AppError is handled",
			err:            common.NewNotFoundError("vehicle not found", nil),
			fallbackMsg:    "failed to get vehicle",
			expectHandled:  true,
			expectStatus:   http.StatusNotFound,
			expectContains: "vehicle not found",
		},
		{
			name:           "wrapped AppError is handled",
			err:            fmt.Errorf("submit: %w", common.NewUpstreamError(common.CodeUpload, "failed to upload documents: boom", nil)),
			fallbackMsg:    "failed",
			expectHandled:  true,
			expectStatus:   http.StatusBadGateway,
			expectContains: "upload_failed",
		},
		{
			name:           "regular error uses fallback",
			err:            errors.New("database error"),
			fallbackMsg:    "failed to get vehicle",
			expectHandled:  true,
			expectStatus:   http.StatusInternalServerError,
			expectContains: "failed to get vehicle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			handled := common.HandleServiceError(c, tt.err, tt.fallbackMsg)
			assert.Equal(t, tt.expectHandled, handled)

			if tt.expectHandled {
				assert.Equal(t, tt.expectStatus, w.Code)
				assert.Contains(t, w.Body.String(), tt.expectContains)
			}
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/test", nil)

	common.AppErrorResponse(c, common.NewValidationError("validation failed", map[string]string{
		"year": "must be a valid vehicle year",
	}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, common.CodeValidation, resp.Error.ErrorCode)
	assert.Equal(t, "must be a valid vehicle year", resp.Error.Fields["year"])
}

func TestErrorResponseCarriesTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)

	common.ErrorResponse(c, http.StatusNotFound, "vehicle not found")

	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, span.SpanContext().TraceID().String(), resp.Error.TraceID)
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := common.NewInternalError("failed to save vehicle", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save vehicle: connection reset", err.Error())
}

func TestNewInternalErrorDefaultsCause(t *testing.T) {
	err := common.NewInternalError("failed to reconcile documents", nil)

	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.ErrorIs(t, err, common.ErrInternalServer)
}

func TestParseUUIDParam(t *testing.T) {
	valid := uuid.New()
	tests := []struct {
		name     string
		param    string
		expectOK bool
		status   int
	}{
		{"valid uuid", valid.String(), true, http.StatusOK},
		{"empty", "", false, http.StatusBadRequest},
		{"malformed", "not-a-uuid", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			id, ok := common.ParseUUIDParam(c, "id", "vehicle ID")
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, valid, id)
			} else {
				assert.Equal(t, tt.status, w.Code)
			}
		})
	}
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Make string `json:"make" binding:"required"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"make":"Tata"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var p payload
	require.True(t, common.BindJSON(c, &p))
	assert.Equal(t, "Tata", p.Make)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var empty payload
	assert.False(t, common.BindJSON(c, &empty))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", common.DefaultLimit, 0},
		{"limit=5&offset=10", 5, 10},
		{"limit=1000", common.MaxLimit, 0},
		{"limit=-3&offset=-1", common.DefaultLimit, 0},
		{"limit=abc", common.DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test?"+tt.query, nil)

			params := common.ParsePagination(c)
			assert.Equal(t, tt.limit, params.Limit)
			assert.Equal(t, tt.offset, params.Offset)
		})
	}
}
