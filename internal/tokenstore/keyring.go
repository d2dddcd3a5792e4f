package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/florianilch/postbot/internal/credentials"
)

// KeyringStore provides OS-native secure credential storage for the token set.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements credentials.Persister
var _ credentials.Persister = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the token set from the system keyring.
func (k *KeyringStore) Load(ctx context.Context) (credentials.TokenSet, error) {
	if err := ctx.Err(); err != nil {
		return credentials.TokenSet{}, err
	}

	secret, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}
	if err != nil {
		return credentials.TokenSet{}, err
	}

	if secret == "" {
		return credentials.TokenSet{}, credentials.ErrNoTokenSet
	}

	return decode([]byte(secret))
}

// Save persists the token set to the system keyring, overwriting any existing value.
func (k *KeyringStore) Save(ctx context.Context, ts credentials.TokenSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(ts)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, k.user, string(data))
}

// Delete removes the token set from the system keyring.
func (k *KeyringStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
