package retry

import (
	"context"
	"errors"
	"time"

	"devaudience/pkg/config"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
)

// RateLimitPolicy is the rate-limit rule shared by the API clients: a
// rate-limited response is retried after Backoff, and once MaxAttempts
// consecutive responses were rate limited the call fails with a
// RateLimitExceeded error.
type RateLimitPolicy struct {
	Status      int
	MaxAttempts int
	Backoff     BackoffStrategy
	Sleep       Sleeper
}

// PolicyFromConfig builds the policy from the rate_limit config section
func PolicyFromConfig(cfg config.RateLimitConfig) RateLimitPolicy {
	return RateLimitPolicy{
		Status:      cfg.Status,
		MaxAttempts: cfg.MaxRetries,
		Backoff:     NewBackoff(cfg.Backoff, cfg.BackoffMultiplier, cfg.MaxBackoff),
		Sleep:       Wait,
	}
}

// Run executes op under the policy. page is only used for error reporting
// and logging; detail lookups pass 0.
func (p RateLimitPolicy) Run(ctx context.Context, api string, page int, log logger.Logger, op Operation) error {
	if log == nil {
		log = logger.NewNopLogger()
	}

	err := Do(op, &Config{
		MaxAttempts: p.MaxAttempts,
		Backoff:     p.Backoff,
		RetryIf:     DefaultRetryIf,
		Sleep:       p.Sleep,
		Context:     ctx,
		OnRetry: func(attempt int, _ error, delay time.Duration) {
			logger.LogRateLimit(log, api, page, attempt, delay)
		},
	})
	if errors.Is(err, ErrMaxAttempts) {
		log.ErrorWithFields("rate limit retry ceiling reached", map[string]interface{}{
			"api":      api,
			"page":     page,
			"attempts": p.MaxAttempts,
		})
		return errs.RateLimitExceeded(api, page, p.MaxAttempts)
	}
	return err
}

// IsRateLimited reports whether status is the configured rate-limit status
func (p RateLimitPolicy) IsRateLimited(status int) bool {
	return status == p.Status
}
