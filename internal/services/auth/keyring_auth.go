package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps tokens in the platform keychain (macOS Keychain,
// Secret Service, Windows Credential Manager).
type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(account string, token string) error {
	return keyring.Set(k.serviceName, normalizeAccount(account), token)
}

func (k *KeyringStore) GetToken(account string) (string, error) {
	token, err := keyring.Get(k.serviceName, normalizeAccount(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return token, err
}

func (k *KeyringStore) DeleteToken(account string) error {
	err := keyring.Delete(k.serviceName, normalizeAccount(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
