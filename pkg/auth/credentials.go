package auth

import (
	"errors"
	"fmt"

	"devaudience/pkg/config"
)

// Credential names a stored secret
type Credential string

const (
	// APIKey is the DEV API key (required)
	APIKey Credential = "devto_api_key"
	// GitHubToken is the GitHub token used for enrichment (optional)
	GitHubToken Credential = "github_token"
)

// Credentials lists every credential the tool knows about
var Credentials = []Credential{APIKey, GitHubToken}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Name identifies the store in status output
	Name() string

	// Store saves a secret
	Store(name Credential, secret string) error

	// Retrieve gets a secret; ErrCredentialsNotFound when absent
	Retrieve(name Credential) (string, error)

	// Delete removes a secret
	Delete(name Credential) error

	// Exists checks if a secret is present
	Exists(name Credential) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager over the system keychain (when available)
// with the environment as fallback
func NewManager() *Manager {
	var stores []CredentialStore
	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}
	stores = append(stores, NewEnvironmentStore())
	return &Manager{stores: stores}
}

// NewManagerWithStores creates a manager over the given stores, in lookup order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a secret in the first store that accepts it and returns that
// store's name
func (m *Manager) Store(name Credential, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrInvalidCredentials)
	}

	var errs []error
	for _, store := range m.stores {
		err := store.Store(name, secret)
		if err == nil {
			return store.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
	}
	if len(errs) == 0 {
		return "", ErrStoreUnavailable
	}
	return "", fmt.Errorf("failed to store %s: %w", name, errors.Join(errs...))
}

// Retrieve gets a secret from the first store that has it, along with that
// store's name
func (m *Manager) Retrieve(name Credential) (string, string, error) {
	for _, store := range m.stores {
		secret, err := store.Retrieve(name)
		if err == nil && secret != "" {
			return secret, store.Name(), nil
		}
	}
	return "", "", fmt.Errorf("%s: %w", name, ErrCredentialsNotFound)
}

// Delete removes a secret from every store that supports deletion
func (m *Manager) Delete(name Credential) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%s: %w", name, ErrCredentialsNotFound)
	}
	return nil
}

// Status describes where a credential comes from
type Status struct {
	Name   Credential
	Source string
	Masked string
}

// Status reports every known credential; Source is empty when missing
func (m *Manager) Status() []Status {
	out := make([]Status, 0, len(Credentials))
	for _, name := range Credentials {
		st := Status{Name: name}
		if secret, source, err := m.Retrieve(name); err == nil {
			st.Source = source
			st.Masked = MaskSecret(secret)
		}
		out = append(out, st)
	}
	return out
}

// Resolve fills the credentials missing from cfg. Values already set (from
// the config file, environment or flags) win over stored ones. It returns
// the sources used, keyed by credential.
func (m *Manager) Resolve(cfg *config.Config) map[Credential]string {
	sources := make(map[Credential]string)
	fill := func(name Credential, target *string) {
		if *target != "" {
			sources[name] = "config"
			return
		}
		if secret, source, err := m.Retrieve(name); err == nil {
			*target = secret
			sources[name] = source
		}
	}
	fill(APIKey, &cfg.DevTo.APIKey)
	fill(GitHubToken, &cfg.GitHub.Token)
	return sources
}

// MaskSecret masks all but the first 4 and last 4 characters of a string
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
