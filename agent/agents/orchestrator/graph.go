package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	nodex "github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/nodes/orchestrator"
)

const (
	nodeValidateRequest  = "validate_request"
	nodePlanTools        = "plan_tools"
	nodeCheckCredentials = "check_credentials"
	nodeCheckSession     = "check_session"
	nodeAuthenticate     = "authenticate"
	nodeDispatchTools    = "dispatch_tools"
	nodeRespond          = "respond"
)

func (o *Orchestrator) compileHandleRequestGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodePlanTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlanTools(ctx, in, o.planner, o.catalog, o.multiTool)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodePlanTools, err)
	}

	if err := graph.AddLambdaNode(nodeCheckCredentials,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckCredentials(ctx, in, o.creds)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeCheckCredentials, err)
	}

	if err := graph.AddLambdaNode(nodeCheckSession,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckSession(ctx, in, o.validator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeCheckSession, err)
	}

	if err := graph.AddLambdaNode(nodeAuthenticate,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Authenticate(ctx, in, o.authenticator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeAuthenticate, err)
	}

	if err := graph.AddLambdaNode(nodeDispatchTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchTools(ctx, in, o.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeDispatchTools, err)
	}

	if err := graph.AddLambdaNode(nodeRespond,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Respond(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRespond, err)
	}

	edges := [][2]string{
		{compose.START, nodeValidateRequest},
		{nodeValidateRequest, nodePlanTools},
		{nodeDispatchTools, nodeRespond},
		{nodeRespond, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	branches := []struct {
		from    string
		route   func(*nodex.GraphState) string
		targets []string
	}{
		{nodePlanTools, routeAfterPlan, []string{nodeRespond, nodeCheckCredentials, nodeDispatchTools}},
		{nodeCheckCredentials, routeAfterCredentials, []string{nodeRespond, nodeCheckSession}},
		{nodeCheckSession, routeAfterSessionCheck, []string{nodeRespond, nodeAuthenticate, nodeDispatchTools}},
		{nodeAuthenticate, routeAfterAuthenticate, []string{nodeRespond, nodeDispatchTools}},
	}
	for _, b := range branches {
		targets := make(map[string]bool, len(b.targets))
		for _, t := range b.targets {
			targets[t] = true
		}
		route := b.route
		branch := compose.NewGraphBranch(func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return route(in), nil
		}, targets)
		if err := graph.AddBranch(b.from, branch); err != nil {
			return nil, fmt.Errorf("add branch after %s: %w", b.from, err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_request"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

// Weather and logo batches never touch credentials or the session cache.
func routeAfterPlan(in *nodex.GraphState) string {
	switch {
	case in.Failed():
		return nodeRespond
	case contract.NeedsSession(in.ToolRequests):
		return nodeCheckCredentials
	default:
		return nodeDispatchTools
	}
}

func routeAfterCredentials(in *nodex.GraphState) string {
	if in.Failed() {
		return nodeRespond
	}
	return nodeCheckSession
}

func routeAfterSessionCheck(in *nodex.GraphState) string {
	switch {
	case in.Failed():
		return nodeRespond
	case in.Session.Valid:
		return nodeDispatchTools
	default:
		return nodeAuthenticate
	}
}

func routeAfterAuthenticate(in *nodex.GraphState) string {
	if in.Failed() {
		return nodeRespond
	}
	return nodeDispatchTools
}
