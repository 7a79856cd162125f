// Package github enriches followers that link a GitHub account with that
// account's public activity (public repositories, followers, following).
//
// Calls go through a circuit breaker. After BreakerFailures consecutive
// failed lookups Enrich fails fast with errors.ErrUnavailable until the
// cooldown elapses.
package github
