package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, store := NewMockManager()

	cred := &Credential{
		Instance:    "mastodon.online",
		AccessToken: "secret-token",
	}
	require.NoError(t, manager.Store(cred))
	assert.Equal(t, 1, store.Count())
	assert.False(t, cred.LastModified.IsZero(), "Store must stamp LastModified")

	got, err := manager.Retrieve("mastodon.online")
	require.NoError(t, err)
	assert.Equal(t, "mastodon.online", got.Instance)
	assert.Equal(t, "secret-token", got.AccessToken)
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(&Credential{AccessToken: "token"}))
	assert.Error(t, manager.Store(&Credential{Instance: "mastodon.online"}))
}

func TestManagerRetrieveMissing(t *testing.T) {
	manager, _ := NewMockManager()

	_, err := manager.Retrieve("nowhere.example")
	assert.Error(t, err)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	failing := NewMockStore()
	failing.RetrieveError = errors.New("keychain locked")
	failing.StoreError = errors.New("keychain locked")

	working := NewMockStore()
	manager := NewMockManagerWithStores(failing, working)

	cred := &Credential{Instance: "mastodon.online", AccessToken: "secret-token"}
	require.NoError(t, manager.Store(cred))
	assert.Equal(t, 0, failing.Count())
	assert.Equal(t, 1, working.Count())

	got, err := manager.Retrieve("mastodon.online")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got.AccessToken)
}

func TestManagerListMergesStores(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewMockManagerWithStores(first, second)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	require.NoError(t, first.Store(&Credential{Instance: "a.example", AccessToken: "old", LastModified: older}))
	require.NoError(t, second.Store(&Credential{Instance: "a.example", AccessToken: "new", LastModified: newer}))
	require.NoError(t, second.Store(&Credential{Instance: "b.example", AccessToken: "other", LastModified: newer}))

	creds, err := manager.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)

	byInstance := make(map[string]*Credential)
	for _, cred := range creds {
		byInstance[cred.Instance] = cred
	}
	assert.Equal(t, "new", byInstance["a.example"].AccessToken, "the most recent credential wins")
	assert.Equal(t, "other", byInstance["b.example"].AccessToken)
}

func TestManagerDelete(t *testing.T) {
	manager, store := NewMockManager()

	require.NoError(t, manager.Store(&Credential{Instance: "mastodon.online", AccessToken: "secret"}))
	require.NoError(t, manager.Delete("mastodon.online"))
	assert.Equal(t, 0, store.Count())

	assert.Error(t, manager.Delete("mastodon.online"), "deleting again must fail")
}

func TestSanitizeCredential(t *testing.T) {
	cred := &Credential{
		Instance:    "mastodon.online",
		AccessToken: "abcdefghijklmnop",
	}

	sanitized := SanitizeCredential(cred)

	assert.Equal(t, "abcd...mnop", sanitized.AccessToken)
	assert.Equal(t, "mastodon.online", sanitized.Instance)
	assert.Equal(t, "abcdefghijklmnop", cred.AccessToken, "the original must not change")

	short := SanitizeCredential(&Credential{Instance: "x", AccessToken: "tiny"})
	assert.Equal(t, "****", short.AccessToken)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Run("without token", func(t *testing.T) {
		t.Setenv("MASTODON_BACKUP_ACCESS_TOKEN", "")

		_, err := store.Retrieve("mastodon.online")
		assert.ErrorIs(t, err, ErrCredentialNotFound)
		assert.False(t, store.Exists("mastodon.online"))
	})

	t.Run("with token", func(t *testing.T) {
		t.Setenv("MASTODON_BACKUP_ACCESS_TOKEN", "env-token")

		cred, err := store.Retrieve("mastodon.online")
		require.NoError(t, err)
		assert.Equal(t, "env-token", cred.AccessToken)
		assert.Equal(t, "mastodon.online", cred.Instance)
		assert.True(t, store.Exists("mastodon.online"))
	})

	t.Run("instance from environment", func(t *testing.T) {
		t.Setenv("MASTODON_BACKUP_ACCESS_TOKEN", "env-token")
		t.Setenv("MASTODON_BACKUP_INSTANCE", "configured.example")

		cred, err := store.Retrieve("")
		require.NoError(t, err)
		assert.Equal(t, "configured.example", cred.Instance)
	})

	t.Run("read only", func(t *testing.T) {
		assert.ErrorIs(t, store.Store(&Credential{Instance: "x", AccessToken: "y"}), ErrStoreUnavailable)
		assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
	})
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("MASTODON_BACKUP_PASSPHRASE", "test-passphrase")

	path := t.TempDir() + "/tokens.enc"
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	cred := &Credential{
		Instance:     "mastodon.online",
		AccessToken:  "secret-token",
		LastModified: time.Now(),
	}
	require.NoError(t, store.Store(cred))

	got, err := store.Retrieve("mastodon.online")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got.AccessToken)

	// A fresh store over the same file decrypts the same data
	reopened, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	got, err = reopened.Retrieve("mastodon.online")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got.AccessToken)

	creds, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	require.NoError(t, reopened.Delete("mastodon.online"))
	assert.False(t, reopened.Exists("mastodon.online"))
}

func TestEncryptedFileStoreMissingCredential(t *testing.T) {
	t.Setenv("MASTODON_BACKUP_PASSPHRASE", "test-passphrase")

	store, err := NewEncryptedFileStore(t.TempDir() + "/tokens.enc")
	require.NoError(t, err)

	_, err = store.Retrieve("nowhere.example")
	assert.Error(t, err)
}
