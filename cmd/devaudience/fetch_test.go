package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"devaudience/pkg/devto"
	errs "devaudience/pkg/errors"
)

func devtoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		switch r.URL.Path {
		case devto.ArticlesEndpoint:
			fmt.Fprint(w, `[{"id":1,"title":"Hello","published":true,"published_at":"2024-03-01T10:00:00Z","tag_list":["go"],"url":"https://dev.to/me/hello"}]`)
		case devto.FollowersEndpoint:
			fmt.Fprint(w, `[{"type_of":"user_follower","id":101,"user_id":1,"username":"ada","created_at":"2024-03-02T08:00:00Z"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeFailsWhenSnapshotsCannotBeSaved(t *testing.T) {
	keyring.MockInit()
	srv := devtoServer(t)

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("devto:\n  base_url: %s\n  api_key: key\ncache:\n  directory: %s\n", srv.URL, blocker)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--config", cfgPath, "--quiet", "--no-color"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configFile = ""
		quiet = false
		noColor = false
	})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCacheWrite)
	assert.Contains(t, out.String(), "Overview", "the report is printed before failing")
}
