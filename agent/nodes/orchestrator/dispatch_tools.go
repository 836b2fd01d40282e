package orchestratornode

import (
	"context"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

// DispatchTools runs the planned tools in order. A tool failure is a result,
// not a terminal error.
func DispatchTools(
	ctx context.Context,
	in *GraphState,
	tools contract.ToolGateway,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if in.Failed() {
		return in, nil
	}

	in.Results = tools.Execute(ctx, in.Username, in.ToolRequests)
	return in, nil
}
