package auth

import "sync"

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu     sync.Mutex
	tokens map[string]string

	// Err, when set, is returned by every call.
	Err error
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(account string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.tokens[normalizeAccount(account)] = token
	return nil
}

func (m *MockStore) GetToken(account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	token, ok := m.tokens[normalizeAccount(account)]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := normalizeAccount(account)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
