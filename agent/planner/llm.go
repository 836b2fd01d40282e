package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

// LLMPlanner asks a tool-calling chat model which tools answer a request.
type LLMPlanner struct {
	runner       compose.Runnable[map[string]any, *schema.Message]
	allowedTools map[string]struct{}
}

var _ contract.Planner = (*LLMPlanner)(nil)

func NewLLMPlanner(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools []*schema.ToolInfo,
) (*LLMPlanner, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contract.ErrPromptMissing
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: planner needs at least one tool", contract.ErrValidation)
	}

	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind planner tools: %v", contract.ErrModelInvoke, err)
	}
	runner, err := compileToolPlanningGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}

	return &LLMPlanner{
		runner:       runner,
		allowedTools: toolSet(tools),
	}, nil
}

// Plan binds req.Tools for this call when given; otherwise the tools from
// construction apply.
func (p *LLMPlanner) Plan(ctx context.Context, req contract.PlannerRequest) ([]contract.ToolRequest, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: request text is required", contract.ErrValidation)
	}

	allowed := p.allowedTools
	var opts []compose.Option
	if len(req.Tools) > 0 {
		allowed = toolSet(req.Tools)
		opts = append(opts, compose.WithChatModelOption(einomodel.WithTools(req.Tools)))
	}

	payload := map[string]any{
		"user_message":    text,
		"available_tools": sortedNames(allowed),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal planner payload: %v", contract.ErrValidation, err)
	}

	msg, err := p.runner.Invoke(ctx, map[string]any{"input": string(input)}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: planner invoke: %v", contract.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty planner response", contract.ErrSchemaViolation)
	}

	reqs, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		reason := strings.TrimSpace(msg.Content)
		if reason == "" {
			reason = "no tool matches the request"
		}
		return nil, fmt.Errorf("%w: %s", contract.ErrToolSelection, reason)
	}

	for _, tr := range reqs {
		if _, ok := allowed[tr.Tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not allowed", contract.ErrSchemaViolation, tr.Tool)
		}
	}
	return reqs, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contract.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contract.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contract.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contract.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contract.ToolRequest{Tool: tool, Args: args})
	}
	return reqs, nil
}

func toolSet(tools []*schema.ToolInfo) map[string]struct{} {
	set := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		set[t.Name] = struct{}{}
	}
	return set
}

func sortedNames(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}
