package auth

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"devaudience/pkg/config"
)

func fakeEnv(vars map[string]string) *EnvironmentStore {
	return &EnvironmentStore{getenv: func(k string) string { return vars[k] }}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	assert.False(t, store.Exists(APIKey))
	_, err = store.Retrieve(APIKey)
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(APIKey, "secret-key"))
	assert.True(t, store.Exists(APIKey))
	got, err := store.Retrieve(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", got)

	require.NoError(t, store.Delete(APIKey))
	assert.ErrorIs(t, store.Delete(APIKey), ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Store(APIKey, ""), ErrInvalidCredentials)
}

func TestKeyringStoreUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("no dbus"))
	t.Cleanup(keyring.MockInit)

	_, err := NewKeyringStore()
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	env := fakeEnv(map[string]string{
		"DEV_KEY":                  "from-dev-key",
		"DEVAUDIENCE_GITHUB_TOKEN": "gh-prefixed",
		"GITHUB_TOKEN":             "gh-plain",
	})

	key, err := env.Retrieve(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "from-dev-key", key)

	token, err := env.Retrieve(GitHubToken)
	require.NoError(t, err)
	assert.Equal(t, "gh-prefixed", token, "prefixed variable wins")

	assert.ErrorIs(t, env.Store(APIKey, "x"), ErrStoreUnavailable)
	assert.ErrorIs(t, env.Delete(APIKey), ErrStoreUnavailable)

	empty := fakeEnv(nil)
	assert.False(t, empty.Exists(GitHubToken))
}

func TestManagerLookupOrder(t *testing.T) {
	keyring.MockInit()
	ks, err := NewKeyringStore()
	require.NoError(t, err)

	m := NewManagerWithStores(ks, fakeEnv(map[string]string{"DEV_KEY": "env-key", "GITHUB_TOKEN": "env-token"}))

	_, source, err := m.Retrieve(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "environment", source)

	stored, err := m.Store(APIKey, "keyring-key")
	require.NoError(t, err)
	assert.Equal(t, "keyring", stored)

	secret, source, err := m.Retrieve(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "keyring-key", secret)
	assert.Equal(t, "keyring", source)

	require.NoError(t, m.Delete(APIKey))
	secret, _, err = m.Retrieve(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "env-key", secret)
}

func TestManagerStoreFailsWithoutWritableStore(t *testing.T) {
	m := NewManagerWithStores(fakeEnv(nil))

	_, err := m.Store(GitHubToken, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = m.Store(GitHubToken, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, m.Delete(GitHubToken), ErrCredentialsNotFound)
}

func TestManagerResolve(t *testing.T) {
	m := NewManagerWithStores(fakeEnv(map[string]string{"DEV_KEY": "env-key", "GITHUB_TOKEN": "env-token"}))

	cfg := config.DefaultConfig()
	cfg.DevTo.APIKey = "flag-key"

	sources := m.Resolve(cfg)

	assert.Equal(t, "flag-key", cfg.DevTo.APIKey)
	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, map[Credential]string{APIKey: "config", GitHubToken: "environment"}, sources)
}

func TestManagerResolveMissingToken(t *testing.T) {
	m := NewManagerWithStores(fakeEnv(map[string]string{"DEV_KEY": "env-key"}))
	cfg := config.DefaultConfig()

	sources := m.Resolve(cfg)

	assert.Equal(t, "env-key", cfg.DevTo.APIKey)
	assert.Empty(t, cfg.GitHub.Token)
	assert.NotContains(t, sources, GitHubToken)
}

func TestManagerStatus(t *testing.T) {
	m := NewManagerWithStores(fakeEnv(map[string]string{"DEV_KEY": "abcdefghijklmnop"}))

	status := m.Status()

	require.Len(t, status, 2)
	assert.Equal(t, Status{Name: APIKey, Source: "environment", Masked: "abcd...mnop"}, status[0])
	assert.Equal(t, Status{Name: GitHubToken}, status[1])
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "********", MaskSecret("short"))
	assert.Equal(t, "1234...cdef", MaskSecret("1234567890abcdef"))
}

func TestShowTokenGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowTokenGuide(&buf)

	assert.Contains(t, buf.String(), "DEV_KEY")
	assert.Contains(t, buf.String(), "GITHUB_TOKEN")
}
