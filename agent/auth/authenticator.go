package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/odoo"
)

// ERPLogin is the part of the ERP client the Authenticator needs.
type ERPLogin interface {
	Authenticate(ctx context.Context, database, login, password string) (int64, error)
}

var _ ERPLogin = (*odoo.Client)(nil)

type Authenticator struct {
	creds    state.CredentialStore
	sessions state.SessionStore
	erp      ERPLogin
}

func NewAuthenticator(creds state.CredentialStore, sessions state.SessionStore, erp ERPLogin) *Authenticator {
	return &Authenticator{creds: creds, sessions: sessions, erp: erp}
}

// Login authenticates username against the ERP and overwrites its cached
// session with a fresh, unexpired record.
func (a *Authenticator) Login(ctx context.Context, username string) (int64, error) {
	creds, err := a.creds.Get(ctx, username)
	if err != nil {
		if errors.Is(err, state.ErrCredentialsNotFound) || errors.Is(err, state.ErrInvalidUsername) {
			return 0, fmt.Errorf("%w: no credentials stored for %q", contract.ErrMissingCredentials, username)
		}
		return 0, fmt.Errorf("read credentials: %w", err)
	}
	if !creds.Complete() {
		return 0, fmt.Errorf("%w: database, username and password are required", contract.ErrMissingCredentials)
	}

	uid, err := a.erp.Authenticate(ctx, creds.Database, creds.Username, creds.Password)
	if err != nil {
		if odoo.IsAuthFault(err) {
			return 0, fmt.Errorf("%w: %v", contract.ErrInvalidCredentials, err)
		}
		return 0, fmt.Errorf("%w: erp authenticate: %v", contract.ErrRemoteFailure, err)
	}
	if uid <= 0 {
		return 0, fmt.Errorf("%w: erp rejected login for %q", contract.ErrInvalidCredentials, username)
	}

	if err := a.sessions.Put(ctx, state.SessionRecord{Username: username, UserID: uid}); err != nil {
		return 0, fmt.Errorf("store session: %w", err)
	}

	log.Info().Str("username", username).Int64("user_id", uid).Msg("erp login succeeded")
	return uid, nil
}
