package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
)

const MissingCredentialsMessage = "Username or password not found. Please provide your username and password."

// CheckCredentials never fills in defaults for absent credentials.
func CheckCredentials(
	ctx context.Context,
	in *GraphState,
	creds state.CredentialStore,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if in.Failed() {
		return in, nil
	}

	missing := contract.ErrorResult{
		Code:    contract.CodeMissingCredentials,
		Message: MissingCredentialsMessage,
	}
	if in.Username == "" {
		return in.failWith(missing), nil
	}

	c, err := creds.Get(ctx, in.Username)
	switch {
	case errors.Is(err, state.ErrCredentialsNotFound), errors.Is(err, state.ErrInvalidUsername):
		return in.failWith(missing), nil
	case err != nil:
		return in.fail(fmt.Errorf("read credentials: %w", err)), nil
	}
	if !c.Complete() {
		return in.failWith(missing), nil
	}
	return in, nil
}
