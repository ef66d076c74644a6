package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/richxcame/fleet/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:       true,
		WindowSeconds: 60,
		Limit:         10,
		Burst:         5,
		RedisPrefix:   "fleet:rate-limit",
	}
}

func newTestLimiter(cfg config.RateLimitConfig) (*Limiter, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	l := NewLimiter(db, cfg)
	l.WithNow(func() time.Time { return fixedNow })
	return l, mock
}

func expectBucket(mock redismock.ClientMock) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(
		redis.NewScript(tokenBucketScript).Hash(),
		[]string{"fleet:rate-limit:submit:10.0.0.1"},
		fixedNow.UnixMilli(), formatFloat(10.0/60000.0), formatFloat(15), int64(120000),
	)
}

func TestAllowTakesToken(t *testing.T) {
	l, mock := newTestLimiter(testConfig())
	expectBucket(mock).SetVal([]interface{}{int64(1), "14", int64(0)})

	res, err := l.Allow(context.Background(), "submit", "10.0.0.1")
	require.NoError(t, err)

	assert.True(t, res.Allowed)
	assert.Equal(t, 14, res.Remaining)
	assert.Equal(t, 10, res.Limit)
	assert.Zero(t, res.RetryAfter)
	assert.InDelta(t, float64(6*time.Second), float64(res.ResetAfter), float64(5*time.Millisecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowRejectsEmptyBucket(t *testing.T) {
	l, mock := newTestLimiter(testConfig())
	expectBucket(mock).SetVal([]interface{}{int64(0), "0.5", int64(3000)})

	res, err := l.Allow(context.Background(), "submit", "10.0.0.1")
	require.NoError(t, err)

	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 3*time.Second, res.RetryAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllowErrors(t *testing.T) {
	l, mock := newTestLimiter(testConfig())
	expectBucket(mock).SetErr(errors.New("connection refused"))

	_, err := l.Allow(context.Background(), "submit", "10.0.0.1")
	assert.ErrorContains(t, err, "connection refused")

	l, mock = newTestLimiter(testConfig())
	expectBucket(mock).SetVal([]interface{}{int64(1)})

	_, err = l.Allow(context.Background(), "submit", "10.0.0.1")
	assert.ErrorContains(t, err, "unexpected script response")
}

func TestAllowDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	l, mock := newTestLimiter(cfg)

	res, err := l.Allow(context.Background(), "submit", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRule(t *testing.T) {
	cfg := testConfig()
	cfg.Burst = -2
	cfg.WindowSeconds = 0

	l := NewLimiter(nil, cfg)
	assert.Equal(t, Rule{Limit: 10, Burst: 0, Window: time.Minute}, l.Rule())
}
