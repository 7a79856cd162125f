package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "devaudience/pkg/errors"
	"devaudience/pkg/logger"
	"devaudience/pkg/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{
		BaseURL: srv.URL,
		Token:   token,
		Policy: retry.RateLimitPolicy{
			Status:      http.StatusTooManyRequests,
			MaxAttempts: 3,
			Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
			Sleep:       func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		},
		BreakerFailures: 2,
		BreakerCooldown: time.Hour,
		Logger:          logger.NewNopLogger(),
	})
	return client, &calls
}

func TestEnrich(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, acceptHeader, r.Header.Get("Accept"))
		fmt.Fprint(w, `{"login":"octocat","public_repos":8,"followers":100,"following":9,"location":"San Francisco","created_at":"2011-01-25T18:44:36Z","updated_at":"2024-05-01T12:00:00+02:00"}`)
	}, "tok")

	got, err := client.Enrich(context.Background(), "octocat")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.PublicRepos)
	assert.Equal(t, 100, got.Followers)
	assert.Equal(t, 9, got.Following)
	require.NotNil(t, got.Location)
	assert.Equal(t, "San Francisco", *got.Location)
	require.NotNil(t, got.CreatedAt)
	assert.Equal(t, time.Date(2011, 1, 25, 18, 44, 36, 0, time.UTC), *got.CreatedAt)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *got.UpdatedAt)
}

func TestEnrichNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, "tok")

	got, err := client.Enrich(context.Background(), "ghost")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestEnrichWithoutToken(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")

	_, err := client.Enrich(context.Background(), "octocat")

	require.ErrorIs(t, err, errs.ErrAuthentication)
	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.APISecondary, typed.API)
	assert.Equal(t, errs.CredentialGitHubToken, typed.Credential)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestEnrichStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  map[string]string
		wantErr error
		calls   int32
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: errs.ErrAuthentication, calls: 1},
		{name: "forbidden", status: http.StatusForbidden, wantErr: errs.ErrAuthentication, calls: 1},
		{name: "server error", status: http.StatusBadGateway, wantErr: errs.ErrAPI, calls: 1},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: errs.ErrRateLimitExceeded, calls: 3},
		{
			name:    "quota exhausted",
			status:  http.StatusForbidden,
			header:  map[string]string{"X-RateLimit-Remaining": "0"},
			wantErr: errs.ErrRateLimitExceeded,
			calls:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}, "tok")

			_, err := client.Enrich(context.Background(), "octocat")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.calls, atomic.LoadInt32(calls))
		})
	}
}

func TestEnrichRateLimitThenSuccess(t *testing.T) {
	var n int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"login":"octocat","public_repos":1}`)
	}, "tok")

	got, err := client.Enrich(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Equal(t, 1, got.PublicRepos)
	assert.Nil(t, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)
	assert.Nil(t, got.Location)
}

func TestEnrichBreakerOpens(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "tok")

	for i := 0; i < 2; i++ {
		_, err := client.Enrich(context.Background(), "octocat")
		require.ErrorIs(t, err, errs.ErrAPI)
	}

	_, err := client.Enrich(context.Background(), "octocat")

	assert.ErrorIs(t, err, errs.ErrUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}
