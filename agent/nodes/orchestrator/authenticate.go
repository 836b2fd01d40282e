package orchestratornode

import (
	"context"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/auth"
)

type Authenticator interface {
	Login(ctx context.Context, username string) (int64, error)
}

func Authenticate(
	ctx context.Context,
	in *GraphState,
	authenticator Authenticator,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if in.Failed() {
		return in, nil
	}

	uid, err := authenticator.Login(ctx, in.Username)
	if err != nil {
		return in.fail(err), nil
	}

	in.LoggedIn = true
	in.Session = auth.SessionStatus{
		Username: in.Username,
		Valid:    true,
		Reason:   auth.ReasonSessionActive,
		UserID:   uid,
	}
	return in, nil
}
