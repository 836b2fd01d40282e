package contract

import "github.com/cloudwego/eino/schema"

const (
	ToolFetchWeather          = "fetch_weather"
	ToolFetchFinanceLogo      = "fetch_finance_logo"
	ToolFetchSaleOrdersByUser = "fetch_sale_orders_by_user"
	ToolCreateSaleOrder       = "create_sale_order"
	ToolFetchUserByLogin      = "fetch_user_by_login"
)

// IsERPTool reports whether the tool needs an authenticated ERP session.
func IsERPTool(tool string) bool {
	switch tool {
	case ToolFetchSaleOrdersByUser, ToolCreateSaleOrder, ToolFetchUserByLogin:
		return true
	default:
		return false
	}
}

// Request is the caller-facing input of the orchestrator. Username scopes every
// piece of credential and session state touched while serving it.
type Request struct {
	Username string `json:"username"`
	Text     string `json:"query"`
}

type ResponseStatus string

const (
	StatusResponded ResponseStatus = "responded"
	StatusFailed    ResponseStatus = "failed"
)

type Response struct {
	RequestID string         `json:"request_id"`
	Status    ResponseStatus `json:"status"`
	Message   string         `json:"message"`
	Results   []ToolResult   `json:"results,omitempty"`
	Error     *ErrorResult   `json:"error,omitempty"`
}

type PlannerRequest struct {
	Text  string             `json:"text"`
	Tools []*schema.ToolInfo `json:"-"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolNames lists the tools of reqs in order.
func ToolNames(reqs []ToolRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Tool)
	}
	return out
}

// NeedsSession reports whether any request in reqs targets an ERP tool.
func NeedsSession(reqs []ToolRequest) bool {
	for _, r := range reqs {
		if IsERPTool(r.Tool) {
			return true
		}
	}
	return false
}
