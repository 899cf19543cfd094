// Package auth stores the model-service bearer token in the OS keychain.
package auth

import (
	"errors"
	"strings"
)

const (
	// ServiceName is the keychain service entries are stored under.
	ServiceName = "aad"

	// ModelServiceAccount is the keychain account holding the model-service token.
	ModelServiceAccount = "model-service"
)

var ErrTokenNotFound = errors.New("auth token not found")

// Store reads and writes tokens by account name.
type Store interface {
	SetToken(account string, token string) error
	GetToken(account string) (string, error)
	DeleteToken(account string) error
}

// DefaultStore returns the keychain-backed store.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// OptionalToken returns the stored token for account, or "" when none is
// stored. Other store failures are returned.
func OptionalToken(s Store, account string) (string, error) {
	token, err := s.GetToken(account)
	if errors.Is(err, ErrTokenNotFound) {
		return "", nil
	}
	return token, err
}

func normalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}
