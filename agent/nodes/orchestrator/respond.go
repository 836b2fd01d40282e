package orchestratornode

import (
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

func Respond(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, ErrNilState
	}

	out := GraphOutput{Tools: contract.ToolNames(in.ToolRequests), LoggedIn: in.LoggedIn}
	if in.Failed() {
		out.Response = contract.Response{
			RequestID: in.RequestID,
			Status:    contract.StatusFailed,
			Message:   contract.Render(*in.Failure),
			Error:     in.Failure,
		}
		return out, nil
	}

	out.Response = contract.Response{
		RequestID: in.RequestID,
		Status:    contract.StatusResponded,
		Message:   contract.RenderAll(in.Results),
		Results:   in.Results,
	}
	return out, nil
}
