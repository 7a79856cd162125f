package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"devaudience/pkg/auth"
	"devaudience/pkg/cache"
	"devaudience/pkg/config"
	"devaudience/pkg/devto"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/loader"
	"devaudience/pkg/logger"
)

const (
	apiKey = "dev-key"
	token  = "gh-token"
)

// fakeDevTo serves a fixed account with two articles and two followers
type fakeDevTo struct {
	requests atomic.Int64
}

func (f *fakeDevTo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if r.Header.Get("api-key") != apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	switch r.URL.Path {
	case devto.ArticlesEndpoint:
		if page > 1 {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"id":1,"title":"Hello","published":true,"published_at":"2024-03-01T10:00:00Z","tag_list":["go","cli"],"url":"https://dev.to/me/hello"},
			{"id":2,"title":"Draft","published":false,"published_at":null,"tag_list":"","url":"https://dev.to/me/draft"}
		]`)
	case devto.FollowersEndpoint:
		if page > 1 {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"type_of":"user_follower","id":101,"user_id":1,"name":"Ada","username":"ada","created_at":"2024-03-02T08:00:00Z"},
			{"type_of":"user_follower","id":102,"user_id":2,"name":"Bob","username":"bob","created_at":"2024-03-03T08:00:00Z"}
		]`)
	case devto.UserByUsernameEndpoint:
		switch r.URL.Query().Get("url") {
		case "ada":
			fmt.Fprint(w, `{"id":1,"username":"ada","summary":"math","github_username":"ada-gh","joined_at":"Jan 1, 2024","articles_count":1}`)
		default:
			fmt.Fprint(w, `{"id":2,"username":"bob","joined_at":"2024-03-05"}`)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type fakeGitHub struct {
	requests atomic.Int64
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if r.Header.Get("Authorization") != "Bearer "+token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.URL.Path != "/users/ada-gh" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fmt.Fprint(w, `{"login":"ada-gh","public_repos":12,"followers":3,"following":4,"created_at":"2015-01-01T00:00:00Z"}`)
}

type env struct {
	cfg    *config.Config
	devto  *fakeDevTo
	github *fakeGitHub
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{devto: &fakeDevTo{}, github: &fakeGitHub{}}

	devSrv := httptest.NewServer(e.devto)
	t.Cleanup(devSrv.Close)
	ghSrv := httptest.NewServer(e.github)
	t.Cleanup(ghSrv.Close)

	cfg := config.DefaultConfig()
	cfg.DevTo.BaseURL = devSrv.URL
	cfg.DevTo.APIKey = apiKey
	cfg.DevTo.Timeout = 5 * time.Second
	cfg.GitHub.BaseURL = ghSrv.URL
	cfg.GitHub.Token = token
	cfg.GitHub.Timeout = 5 * time.Second
	cfg.Cache.Directory = t.TempDir()
	e.cfg = cfg
	return e
}

func (e *env) run(t *testing.T, opts Options) (*Result, error) {
	t.Helper()
	opts.Config = e.cfg
	opts.Logger = logger.NewNopLogger()
	return Run(context.Background(), opts)
}

func stagesOf(warnings []loader.Warning) []string {
	var stages []string
	for _, w := range warnings {
		stages = append(stages, w.Stage)
	}
	return stages
}

func TestRunFetchesThenUsesCache(t *testing.T) {
	e := newEnv(t)

	res, err := e.run(t, Options{Followers: loader.FollowerOptions{Enrich: true}})
	require.NoError(t, err)

	assert.Equal(t, VariantEnriched, res.Variant)
	assert.Equal(t, cache.SourceFetch, res.Sources[cache.KeyArticles])
	assert.Equal(t, cache.SourceFetch, res.Sources[cache.KeyFollowers])

	require.Len(t, res.Articles, 2)
	assert.Nil(t, res.Articles[1].PublishedAt)
	require.Len(t, res.Followers, 2)
	ada := res.Followers[0]
	require.NotNil(t, ada.Enrichment)
	assert.Equal(t, 12, ada.Enrichment.PublicRepos)
	assert.Nil(t, res.Followers[1].Enrichment)

	assert.Equal(t, []string{StageValidation}, stagesOf(res.Warnings), "bob joined after following")
	assert.Equal(t, 2, res.Report.Followers)
	assert.Equal(t, 1, res.Report.Enriched)
	assert.Equal(t, 1, res.Report.Published)
	require.Len(t, res.Report.Engagement, 1)
	assert.Equal(t, 2, res.Report.Engagement[0].Attributed)

	// articles, followers, two details
	assert.EqualValues(t, 4, e.devto.requests.Load())
	assert.EqualValues(t, 1, e.github.requests.Load())

	again, err := e.run(t, Options{Followers: loader.FollowerOptions{Enrich: true}})
	require.NoError(t, err)

	assert.Equal(t, cache.SourceCache, again.Sources[cache.KeyArticles])
	assert.Equal(t, cache.SourceCache, again.Sources[cache.KeyFollowers])
	assert.Empty(t, cmp.Diff(res.Articles, again.Articles))
	assert.Empty(t, cmp.Diff(res.Followers, again.Followers))
	assert.Empty(t, cmp.Diff(res.Report, again.Report))
	assert.EqualValues(t, 4, e.devto.requests.Load())
	assert.EqualValues(t, 1, e.github.requests.Load())
}

func TestRunRefetchesOnVariantChange(t *testing.T) {
	e := newEnv(t)

	res, err := e.run(t, Options{})
	require.NoError(t, err)
	assert.Equal(t, VariantBasic, res.Variant)
	assert.Nil(t, res.Followers[0].Bio)
	assert.EqualValues(t, 2, e.devto.requests.Load())

	res, err = e.run(t, Options{Followers: loader.FollowerOptions{Extended: true}})
	require.NoError(t, err)
	assert.Equal(t, VariantExtended, res.Variant)
	assert.Equal(t, cache.SourceCache, res.Sources[cache.KeyArticles])
	assert.Equal(t, cache.SourceFetch, res.Sources[cache.KeyFollowers])
	require.NotNil(t, res.Followers[0].Bio)
	assert.Equal(t, "math", *res.Followers[0].Bio)
}

func TestRunRefresh(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, Options{})
	require.NoError(t, err)
	res, err := e.run(t, Options{Refresh: true})
	require.NoError(t, err)

	assert.Equal(t, cache.SourceFetch, res.Sources[cache.KeyArticles])
	assert.EqualValues(t, 4, e.devto.requests.Load())
}

func TestRunPrimaryAuthenticationIsFatal(t *testing.T) {
	e := newEnv(t)
	e.cfg.DevTo.APIKey = "wrong"

	res, err := e.run(t, Options{})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, errs.ErrAuthentication)
	_, statErr := os.Stat(e.cfg.ArticlesSnapshotPath())
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunMissingAPIKeySendsNoRequest(t *testing.T) {
	e := newEnv(t)
	e.cfg.DevTo.APIKey = ""

	_, err := e.run(t, Options{})

	assert.ErrorIs(t, err, errs.ErrAuthentication)
	assert.Zero(t, e.devto.requests.Load())
}

func TestRunEnrichWithoutToken(t *testing.T) {
	e := newEnv(t)
	e.cfg.GitHub.Token = ""

	res, err := e.run(t, Options{Followers: loader.FollowerOptions{Enrich: true}})
	require.NoError(t, err)

	assert.Equal(t, VariantExtended, res.Variant)
	assert.Zero(t, e.github.requests.Load())
	assert.Equal(t, []string{loader.StageEnrichment, StageValidation}, stagesOf(res.Warnings))
	assert.ErrorIs(t, res.Warnings[0].Err, errs.ErrAuthentication)
	assert.NotNil(t, res.Followers[0].Bio, "details are still fetched")
}

func TestRunEnrichmentAuthFailureKeepsRunning(t *testing.T) {
	e := newEnv(t)
	e.cfg.GitHub.Token = "revoked"

	res, err := e.run(t, Options{Followers: loader.FollowerOptions{Enrich: true}})
	require.NoError(t, err)

	assert.Nil(t, res.Followers[0].Enrichment)
	assert.False(t, res.Followers[0].Degraded)
	assert.Contains(t, stagesOf(res.Warnings), loader.StageEnrichment)
}

func TestRunCacheWriteFailureReturnsResult(t *testing.T) {
	e := newEnv(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	e.cfg.Cache.Directory = blocker

	res, err := e.run(t, Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCacheWrite)
	require.NotNil(t, res)
	assert.Len(t, res.Articles, 2)
	assert.Len(t, res.Followers, 2)
	assert.Equal(t, 2, res.Report.Followers)
}

func TestRunCacheDisabled(t *testing.T) {
	e := newEnv(t)
	e.cfg.Cache.Enabled = false

	_, err := e.run(t, Options{})
	require.NoError(t, err)
	_, err = e.run(t, Options{})
	require.NoError(t, err)

	assert.EqualValues(t, 4, e.devto.requests.Load())
	_, statErr := os.Stat(e.cfg.ArticlesSnapshotPath())
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunResolvesStoredCredentials(t *testing.T) {
	keyring.MockInit()
	store, err := auth.NewKeyringStore()
	require.NoError(t, err)
	require.NoError(t, store.Store(auth.APIKey, apiKey))
	t.Cleanup(func() { _ = store.Delete(auth.APIKey) })

	e := newEnv(t)
	e.cfg.DevTo.APIKey = ""

	res, err := e.run(t, Options{Credentials: auth.NewManagerWithStores(store)})
	require.NoError(t, err)

	assert.Len(t, res.Articles, 2)
	assert.Empty(t, e.cfg.DevTo.APIKey, "caller config is not modified")
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
