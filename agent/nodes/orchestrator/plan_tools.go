package orchestratornode

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

func PlanTools(
	ctx context.Context,
	in *GraphState,
	planner contract.Planner,
	tools []*schema.ToolInfo,
	multiTool bool,
) (*GraphState, error) {
	if in == nil {
		return nil, ErrNilState
	}
	if in.Failed() {
		return in, nil
	}

	reqs, err := planner.Plan(ctx, contract.PlannerRequest{Text: in.Text, Tools: tools})
	if err != nil {
		return in.fail(err), nil
	}
	if len(reqs) == 0 {
		return in.fail(contract.ErrToolSelection), nil
	}

	if !multiTool && len(reqs) > 1 {
		log.Debug().
			Str("request_id", in.RequestID).
			Strs("dropped", contract.ToolNames(reqs[1:])).
			Msg("multi-tool dispatch disabled, keeping first tool only")
		reqs = reqs[:1]
	}

	in.ToolRequests = reqs
	return in, nil
}
