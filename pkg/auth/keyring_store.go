package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "devaudience"

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

func (k *KeyringStore) Name() string { return "keyring" }

// Store saves a secret to the system keychain
func (k *KeyringStore) Store(name Credential, secret string) error {
	if name == "" || secret == "" {
		return ErrInvalidCredentials
	}
	if err := keyring.Set(keyringService, string(name), secret); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve gets a secret from the system keychain
func (k *KeyringStore) Retrieve(name Credential) (string, error) {
	secret, err := keyring.Get(keyringService, string(name))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrCredentialsNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return secret, nil
}

// Delete removes a secret from the system keychain
func (k *KeyringStore) Delete(name Credential) error {
	err := keyring.Delete(keyringService, string(name))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a secret is in the keychain
func (k *KeyringStore) Exists(name Credential) bool {
	_, err := keyring.Get(keyringService, string(name))
	return err == nil
}
