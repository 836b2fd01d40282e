package orchestratornode

import (
	"context"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/auth"
)

type SessionChecker interface {
	CheckSession(ctx context.Context, username string) (auth.SessionStatus, error)
}

func CheckSession(
	ctx context.Context,
	in *GraphState,
	validator SessionChecker,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if in.Failed() {
		return in, nil
	}

	status, err := validator.CheckSession(ctx, in.Username)
	if err != nil {
		return in.fail(err), nil
	}
	in.Session = status
	return in, nil
}
