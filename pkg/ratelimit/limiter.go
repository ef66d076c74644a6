package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/richxcame/fleet/pkg/config"
)

// Rule is a token bucket: Limit tokens refill per Window, Burst extra may accumulate
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result captures the outcome of a rate limiting decision.
type Result struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter time.Duration
	ResetAfter time.Duration
}

// Limiter implements a Redis-backed token bucket rate limiter.
type Limiter struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

const tokenBucketScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local refillRate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "timestamp")
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil then
    tokens = capacity
    last = now
elseif last == nil then
    last = now
end

if now > last then
    tokens = math.min(capacity, tokens + ((now - last) * refillRate))
    last = now
end

local allowed = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
end

redis.call("HSET", key, "tokens", tokens, "timestamp", last)
redis.call("PEXPIRE", key, ttl)

local retryAfter = 0
if allowed == 0 then
    retryAfter = math.ceil((1 - tokens) / refillRate)
end

return {allowed, tostring(tokens), retryAfter}
`

// NewLimiter creates a new Limiter instance.
func NewLimiter(client redis.Scripter, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucketScript),
		now:    time.Now,
	}
}

// Rule returns the configured bucket
func (l *Limiter) Rule() Rule {
	burst := l.cfg.Burst
	if burst < 0 {
		burst = 0
	}
	return Rule{Limit: l.cfg.Limit, Burst: burst, Window: l.cfg.Window()}
}

// Allow takes one token from the bucket identified by scope and identity.
func (l *Limiter) Allow(ctx context.Context, scope, identity string) (Result, error) {
	rule := l.Rule()
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return Result{Allowed: true, Remaining: rule.Limit, Limit: rule.Limit}, nil
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, scope, identity)

	windowMillis := rule.Window.Milliseconds()
	refillRate := float64(rule.Limit) / float64(windowMillis)
	capacity := float64(rule.Limit + rule.Burst)
	ttl := windowMillis * 2

	raw, err := l.script.Run(ctx, l.client, []string{key},
		l.now().UnixMilli(), formatFloat(refillRate), formatFloat(capacity), ttl,
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("evaluate rate limit: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Result{}, errors.New("unexpected script response")
	}

	remaining := toFloat(values[1])
	result := Result{
		Allowed:    toInt(values[0]) == 1,
		Remaining:  int(math.Max(0, math.Floor(remaining))),
		Limit:      rule.Limit,
		RetryAfter: time.Duration(toInt(values[2])) * time.Millisecond,
	}
	if result.Allowed {
		result.RetryAfter = 0
		missing := math.Max(0, capacity-remaining)
		result.ResetAfter = time.Duration(math.Ceil(missing/refillRate)) * time.Millisecond
	} else {
		result.ResetAfter = result.RetryAfter
	}
	return result, nil
}

// WithNow overrides the time source (useful for tests).
func (l *Limiter) WithNow(now func() time.Time) {
	l.now = now
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 10, 64)
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	default:
		return 0
	}
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
