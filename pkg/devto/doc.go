// Package devto is the client for the DEV (Forem) REST API.
//
// Listings are exposed as lazy page sequences:
//
//	client := devto.NewClient(devto.OptionsFromConfig(cfg))
//	for records, err := range client.Pages(ctx, devto.FollowersRequest(0)) {
//	    if err != nil {
//	        return err
//	    }
//	    // decode records
//	}
//
// Every request runs under a retry.RateLimitPolicy. A response with the
// configured rate-limit status is retried after the backoff; once the retry
// ceiling is reached the call fails with errors.ErrRateLimitExceeded. 401 and
// 403 fail immediately with errors.ErrAuthentication, any other non-2xx status
// and transport failures with errors.ErrAPI carrying the status (0 for
// transport failures) and the page index.
package devto
