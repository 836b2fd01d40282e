package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRecord   = errors.New("invalid session record")
)

const (
	fieldUserID         = "user_id"
	fieldSessionExpired = "session_expired"
)

// SessionRecord is the cached proof of a successful ERP login.
// SessionExpired is the only validity signal; it is set when an ERP call is
// rejected and cleared by the next successful login.
type SessionRecord struct {
	Username       string `json:"username"`
	UserID         int64  `json:"user_id"`
	SessionExpired bool   `json:"session_expired"`
}

// Usable reports whether the cached identity can be sent to the ERP.
func (r *SessionRecord) Usable() bool {
	return r != nil && r.UserID > 0 && !r.SessionExpired
}

// SessionStore is the session cache contract. Implementations must key every
// record by username.
type SessionStore interface {
	Get(ctx context.Context, username string) (*SessionRecord, error)
	Put(ctx context.Context, rec SessionRecord) error
	MarkExpired(ctx context.Context, username string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

func encodeRecord(rec SessionRecord) map[string]string {
	expired := "0"
	if rec.SessionExpired {
		expired = "1"
	}
	return map[string]string{
		fieldUserID:         strconv.FormatInt(rec.UserID, 10),
		fieldSessionExpired: expired,
	}
}

func decodeRecord(username string, fields map[string]string) (*SessionRecord, error) {
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	rec := &SessionRecord{Username: username, SessionExpired: true}
	if raw := strings.TrimSpace(fields[fieldUserID]); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: user_id=%q", ErrInvalidRecord, raw)
		}
		rec.UserID = uid
	}
	if raw, ok := fields[fieldSessionExpired]; ok {
		expired, err := parseExpiredFlag(raw)
		if err != nil {
			return nil, err
		}
		rec.SessionExpired = expired
	}
	return rec, nil
}

// parseExpiredFlag accepts "0"/"1" and boolean spellings written by older clients.
func parseExpiredFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return true, fmt.Errorf("%w: session_expired=%q", ErrInvalidRecord, raw)
	}
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu    sync.RWMutex
	store map[string]SessionRecord
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{store: make(map[string]SessionRecord)}
}

func (s *MemorySessionStore) Get(_ context.Context, username string) (*SessionRecord, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidUsername
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.store[username]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &rec, nil
}

func (s *MemorySessionStore) Put(_ context.Context, rec SessionRecord) error {
	if strings.TrimSpace(rec.Username) == "" {
		return ErrInvalidUsername
	}
	s.mu.Lock()
	s.store[rec.Username] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) MarkExpired(_ context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store[username]
	if !ok {
		return nil
	}
	rec.SessionExpired = true
	s.store[username] = rec
	return nil
}
