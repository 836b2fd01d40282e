package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidUsername     = errors.New("username is empty")
)

// Credentials are the ERP login parameters held for one username.
type Credentials struct {
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Complete reports whether every field needed for an ERP login is set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Database) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		c.Password != ""
}

type CredentialStore interface {
	Get(ctx context.Context, username string) (Credentials, error)
	Set(ctx context.Context, creds Credentials) error
}

// MemoryCredentialStore keeps credentials in process memory, keyed by username.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	store map[string]Credentials
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{store: make(map[string]Credentials)}
}

func (s *MemoryCredentialStore) Get(_ context.Context, username string) (Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Credentials{}, ErrInvalidUsername
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.store[username]
	if !ok {
		return Credentials{}, ErrCredentialsNotFound
	}
	return c, nil
}

func (s *MemoryCredentialStore) Set(_ context.Context, creds Credentials) error {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return ErrInvalidUsername
	}
	creds.Username = username
	creds.Database = strings.TrimSpace(creds.Database)
	s.mu.Lock()
	s.store[username] = creds
	s.mu.Unlock()
	return nil
}
