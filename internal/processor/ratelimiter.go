package processor

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// RateLimiter spaces out calls to an upstream service.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewRateLimiter allows one call per interval with the given burst. A
// non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration, burst int, log logger.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  log,
	}
}

// Wait blocks until the next call is allowed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("Rate limiter wait failed", logger.Error(err))
		return err
	}
	return nil
}

// Allow reports whether a call may happen now without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetInterval changes the spacing between calls.
func (r *RateLimiter) SetInterval(interval time.Duration) {
	r.limiter.SetLimit(rate.Every(interval))
	r.logger.Info("Rate limit updated", logger.Duration("interval", interval))
}
