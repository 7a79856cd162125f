// Package retry provides the backoff and retry loop used when an API answers
// with its rate-limit status.
//
// Only errors classified as retryable (a single rate-limited response) are
// retried. The operation runs at most MaxAttempts times; once the ceiling is
// reached the returned error wraps both ErrMaxAttempts and the last failure.
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		return fetchPage(ctx, page)
//	}, &retry.Config{
//		MaxAttempts: 5,
//		Backoff:     &retry.ConstantBackoff{Delay: 2 * time.Second},
//		Sleep:       retry.Wait,
//	})
//
// The Sleep hook is the only source of timing; tests replace it with a
// recorder so backoff behaviour is deterministic.
package retry
