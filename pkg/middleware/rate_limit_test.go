package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	result ratelimit.Result
	err    error
	scope  string
	who    string
}

func (s *stubLimiter) Allow(_ context.Context, scope, identity string) (ratelimit.Result, error) {
	s.scope, s.who = scope, identity
	return s.result, s.err
}

func rateLimitedRouter(l Limiter) *gin.Engine {
	r := gin.New()
	r.PUT("/form", RateLimit(l, "vehicle-form"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRateLimitAllows(t *testing.T) {
	l := &stubLimiter{result: ratelimit.Result{Allowed: true, Remaining: 4, Limit: 10, ResetAfter: 6 * time.Second}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/form", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rateLimitedRouter(l).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "vehicle-form", l.scope)
	assert.Equal(t, "10.0.0.1", l.who)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "6", w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitRejects(t *testing.T) {
	l := &stubLimiter{result: ratelimit.Result{Allowed: false, Limit: 10, RetryAfter: 200 * time.Millisecond}}

	w := httptest.NewRecorder()
	rateLimitedRouter(l).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/form", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), CodeRateLimited)
}

func TestRateLimitFailsOpen(t *testing.T) {
	l := &stubLimiter{err: errors.New("redis down")}

	w := httptest.NewRecorder()
	rateLimitedRouter(l).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/form", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
