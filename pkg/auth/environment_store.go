package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables. Read-only; useful for CI and one-off runs.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a token from environment variables. The environment
// holds a single token, so it answers for whatever instance is asked.
func (e *EnvironmentStore) Retrieve(instance string) (*Credential, error) {
	token := os.Getenv("MASTODON_BACKUP_ACCESS_TOKEN")
	if token == "" {
		return nil, ErrCredentialNotFound
	}

	if instance == "" {
		instance = os.Getenv("MASTODON_BACKUP_INSTANCE")
	}
	if instance == "" {
		instance = "default"
	}

	return &Credential{
		Instance:     instance,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if the environment variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(instance string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists(instance string) bool {
	return os.Getenv("MASTODON_BACKUP_ACCESS_TOKEN") != ""
}
