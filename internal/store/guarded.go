package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// GuardConfig configures Guarded.
type GuardConfig struct {
	Name             string
	Timeout          time.Duration // per call; 0 disables
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultGuardConfig returns the settings used for the remote store.
func DefaultGuardConfig(name string) GuardConfig {
	return GuardConfig{
		Name:             name,
		Timeout:          5 * time.Second,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Guarded wraps a DocumentStore with a circuit breaker and a per-call
// timeout. Open-circuit rejections surface as ordinary errors, which the
// repository logs like any other remote failure.
type Guarded struct {
	next    DocumentStore
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuarded wraps next.
func NewGuarded(next DocumentStore, cfg GuardConfig, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Guarded{next: next, cb: cb, timeout: cfg.Timeout}
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State { return g.cb.State() }

func (g *Guarded) call(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	v, err := g.cb.Execute(func() (interface{}, error) { return fn(ctx) })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (g *Guarded) Get(ctx context.Context, p Path) (Document, error) {
	v, err := g.call(ctx, "get", func(ctx context.Context) (any, error) {
		return g.next.Get(ctx, p)
	})
	if err != nil {
		return Document{}, err
	}
	return v.(Document), nil
}

func (g *Guarded) Set(ctx context.Context, p Path, data domain.Record, opts SetOptions) error {
	_, err := g.call(ctx, "set", func(ctx context.Context) (any, error) {
		return nil, g.next.Set(ctx, p, data, opts)
	})
	return err
}

func (g *Guarded) Delete(ctx context.Context, p Path) error {
	_, err := g.call(ctx, "delete", func(ctx context.Context) (any, error) {
		return nil, g.next.Delete(ctx, p)
	})
	return err
}

func (g *Guarded) List(ctx context.Context, user, collection string, limit int) ([]domain.Record, error) {
	v, err := g.call(ctx, "list", func(ctx context.Context) (any, error) {
		return g.next.List(ctx, user, collection, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Record), nil
}
