package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// RetryPolicy re-runs a unit of work while it keeps failing with transient
// storage errors. Each attempt starts over; nothing is resumed.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Log             *logger.Logger
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     config.DefaultRetryAttempts,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

func RetryPolicyFromConfig(cfg config.Database, log *logger.Logger) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		p.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryInitialDelay > 0 {
		p.InitialInterval = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		p.MaxInterval = cfg.RetryMaxDelay
	}
	p.Log = log
	return p
}

// Do runs op until it succeeds, fails with a non-transient error, the attempt
// budget is spent, or ctx is done. The last error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	log := logger.OrNop(p.Log)

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("transient storage failure, retrying", "attempt", attempt, "max_attempts", attempts, "next_in", next, "error", err)
		}),
	)
	return err
}
