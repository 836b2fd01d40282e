package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
)

const (
	ReasonCredentialsMissing = "credentials missing"
	ReasonSessionActive      = "session active"
	ReasonSessionNotFound    = "session not found"
	ReasonSessionExpired     = "session expired"
)

type SessionStatus struct {
	Username string `json:"username"`
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason"`
	UserID   int64  `json:"user_id,omitempty"`
}

// Validator answers whether a username can call the ERP without logging in first.
type Validator struct {
	creds    state.CredentialStore
	sessions state.SessionStore
}

func NewValidator(creds state.CredentialStore, sessions state.SessionStore) *Validator {
	return &Validator{creds: creds, sessions: sessions}
}

// CheckSession never writes to either store.
func (v *Validator) CheckSession(ctx context.Context, username string) (SessionStatus, error) {
	status := SessionStatus{Username: username, Reason: ReasonCredentialsMissing}
	if strings.TrimSpace(username) == "" {
		return status, nil
	}

	if _, err := v.creds.Get(ctx, username); err != nil {
		if errors.Is(err, state.ErrCredentialsNotFound) || errors.Is(err, state.ErrInvalidUsername) {
			return status, nil
		}
		return status, fmt.Errorf("read credentials: %w", err)
	}

	rec, err := v.sessions.Get(ctx, username)
	switch {
	case errors.Is(err, state.ErrSessionNotFound):
		status.Reason = ReasonSessionNotFound
		return status, nil
	case err != nil:
		return status, fmt.Errorf("read session: %w", err)
	}

	status.UserID = rec.UserID
	if !rec.Usable() {
		status.Reason = ReasonSessionExpired
		return status, nil
	}
	status.Valid = true
	status.Reason = ReasonSessionActive
	return status, nil
}
