package contract

import "context"

// Planner maps a free-form request onto an ordered list of tool invocations.
type Planner interface {
	Plan(ctx context.Context, req PlannerRequest) ([]ToolRequest, error)
}

// ToolGateway runs tool invocations for username, one at a time, in order.
// Tool failures come back as ErrorResult values, not as errors.
type ToolGateway interface {
	Execute(ctx context.Context, username string, reqs []ToolRequest) []ToolResult
}

type HistoryEntry struct {
	RequestID string         `json:"request_id"`
	Username  string         `json:"username"`
	Text      string         `json:"query"`
	Tools     []string       `json:"tools"`
	Status    ResponseStatus `json:"status"`
	ErrorCode int            `json:"error_code,omitempty"`
}

type HistoryStore interface {
	Record(ctx context.Context, entry HistoryEntry) error
}
