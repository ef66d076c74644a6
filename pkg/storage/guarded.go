package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/richxcame/fleet/pkg/resilience"
)

// ErrUnavailable is returned while the object store breaker is open
var ErrUnavailable = errors.New("object store unavailable")

// Guarded fails fast while the wrapped store keeps failing
type Guarded struct {
	next    Storage
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps next with breaker. A nil breaker passes every call through.
func NewGuarded(next Storage, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

// Upload runs the upload through the breaker
func (g *Guarded) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error) {
	result, err := g.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return g.next.Upload(ctx, key, body, size, contentType, onProgress)
	})
	if err != nil {
		return "", translate(err)
	}
	return result.(string), nil
}

// Delete runs the delete through the breaker
func (g *Guarded) Delete(ctx context.Context, key string) error {
	_, err := g.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, g.next.Delete(ctx, key)
	})
	return translate(err)
}

// PublicURL never touches the network
func (g *Guarded) PublicURL(key string) string {
	return g.next.PublicURL(key)
}

// Ping bypasses the breaker so readiness reflects the real store
func (g *Guarded) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

func translate(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
