package auth

import "os"

// envVars lists the variables checked per credential, in order
var envVars = map[Credential][]string{
	APIKey:      {"DEVAUDIENCE_API_KEY", "DEV_KEY"},
	GitHubToken: {"DEVAUDIENCE_GITHUB_TOKEN", "GITHUB_TOKEN"},
}

// EnvironmentStore implements CredentialStore over environment variables.
// It is read-only.
type EnvironmentStore struct {
	getenv func(string) string
}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{getenv: os.Getenv}
}

func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(Credential, string) error {
	return ErrStoreUnavailable
}

// Retrieve returns the first non-empty variable for name
func (e *EnvironmentStore) Retrieve(name Credential) (string, error) {
	for _, v := range envVars[name] {
		if secret := e.getenv(v); secret != "" {
			return secret, nil
		}
	}
	return "", ErrCredentialsNotFound
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(Credential) error {
	return ErrStoreUnavailable
}

// Exists checks if any variable for name is set
func (e *EnvironmentStore) Exists(name Credential) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
