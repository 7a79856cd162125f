// Package ratelimit paces requests to the primary API.
//
// The APIs signal rate limiting with a status code, which the clients handle
// by backing off and retrying. Pacing is the optional client-side half: a
// SlidingWindow admits at most N requests in any window, so long follower
// listings with detail lookups stay under the server's budget instead of
// repeatedly hitting it.
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
