package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	memstore "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/yourorg/tastebook/internal/reliability/circuitbreaker"
)

// Result is the outcome of one rate-limit check
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// Limiter counts requests per key (the household) over a fixed period. When a Redis store
// is configured it is used while healthy; calls fall back to a process-local store while
// the breaker is open.
type Limiter struct {
	primary  *limiter.Limiter
	fallback *limiter.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewLimiter creates an in-memory limiter allowing limit requests per period
func NewLimiter(limit int64, period time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	rate := limiter.Rate{Period: period, Limit: limit}
	return &Limiter{
		fallback: limiter.New(memstore.NewStore(), rate),
		logger:   logger,
	}
}

// NewRedisLimiter creates a limiter shared by every instance through Redis
func NewRedisLimiter(client *goredis.Client, limit int64, period time.Duration, breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) (*Limiter, error) {
	l := NewLimiter(limit, period, logger)
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "tastebook_limiter",
		MaxRetry: 3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create redis limiter store")
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(5, 1, 30*time.Second)
	}
	breaker.OnStateChange(func(from, to circuitbreaker.State) {
		l.logger.Warn("rate limiter store state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	l.primary = limiter.New(store, limiter.Rate{Period: period, Limit: limit})
	l.breaker = breaker
	return l, nil
}

// Allow counts one request for key. An empty key is never limited.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{Allowed: true}, nil
	}

	if l.primary != nil {
		var lc limiter.Context
		err := l.breaker.Execute(func() error {
			var err error
			lc, err = l.primary.Get(ctx, key)
			return err
		})
		if err == nil {
			return toResult(lc), nil
		}
		if !errors.Is(err, circuitbreaker.ErrOpen) {
			l.logger.WarnContext(ctx, "redis rate limiter failed, using memory store",
				slog.String("error", err.Error()),
			)
		}
	}

	lc, err := l.fallback.Get(ctx, key)
	if err != nil {
		return Result{}, errors.Wrap(err, "rate limit")
	}
	return toResult(lc), nil
}

func toResult(lc limiter.Context) Result {
	return Result{
		Allowed:   !lc.Reached,
		Limit:     lc.Limit,
		Remaining: lc.Remaining,
		Reset:     time.Unix(lc.Reset, 0),
	}
}
