package planner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
)

var clauseSplitter = regexp.MustCompile(`(?i)\s*(?:;|,|\band then\b|\bthen\b|\band\b|\balso\b)\s*`)

type rule struct {
	tool    string
	pattern *regexp.Regexp
	args    func(m []string) map[string]any
}

// rules are tried in order; the first match wins for a clause.
var rules = []rule{
	{
		tool:    contract.ToolFetchWeather,
		pattern: regexp.MustCompile(`(?i)\bweather\b.*?\b(?:in|for|at|of)\s+([\p{L}][\p{L} .'-]*?)[\s?!.]*$`),
		args: func(m []string) map[string]any {
			return map[string]any{"city": strings.TrimSpace(m[1])}
		},
	},
	{
		tool:    contract.ToolFetchFinanceLogo,
		pattern: regexp.MustCompile(`(?i)\blogo\b.*?\b(?:for|of)\s+([A-Za-z][A-Za-z0-9.\-]*)`),
		args: func(m []string) map[string]any {
			return map[string]any{"stock": strings.ToUpper(m[1])}
		},
	},
	{
		tool:    contract.ToolCreateSaleOrder,
		pattern: regexp.MustCompile(`(?i)\bcreate\b.*?\b(?:sale|sales)\s+orders?\b.*?\bpartner\s+#?(\d+).*?\bproduct\s+#?(\d+)(?:.*?\b(?:qty|quantity|x)\s*(\d+(?:\.\d+)?))?`),
		args: func(m []string) map[string]any {
			qty := 1.0
			if m[3] != "" {
				if q, err := strconv.ParseFloat(m[3], 64); err == nil {
					qty = q
				}
			}
			partnerID, _ := strconv.ParseInt(m[1], 10, 64)
			productID, _ := strconv.ParseInt(m[2], 10, 64)
			return map[string]any{
				"partner_id": partnerID,
				"order_lines": []any{map[string]any{
					"product_id": productID,
					"quantity":   qty,
				}},
			}
		},
	},
	{
		tool:    contract.ToolFetchUserByLogin,
		pattern: regexp.MustCompile(`(?i)\buser\b.*?\b(?:login\s+)?([\w.+-]+@[\w.-]+|[\w.-]+)\s*$`),
		args: func(m []string) map[string]any {
			return map[string]any{"login": m[1]}
		},
	},
	{
		tool:    contract.ToolFetchSaleOrdersByUser,
		pattern: regexp.MustCompile(`(?i)\b(?:my\s+)?(?:sale|sales)(?:\s+orders?)?\b`),
		args: func([]string) map[string]any {
			return map[string]any{}
		},
	},
}

// RulePlanner maps phrases like "weather in Karachi" or "show my sales" onto
// tools without a language model.
type RulePlanner struct{}

var _ contract.Planner = RulePlanner{}

func NewRulePlanner() RulePlanner {
	return RulePlanner{}
}

func (RulePlanner) Plan(_ context.Context, req contract.PlannerRequest) ([]contract.ToolRequest, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: request text is required", contract.ErrValidation)
	}

	allowed := toolSet(req.Tools)

	var out []contract.ToolRequest
	for _, clause := range splitClauses(text) {
		tr, ok := matchClause(clause)
		if !ok {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[tr.Tool]; !ok {
				continue
			}
		}
		out = append(out, tr)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no tool matches %q", contract.ErrToolSelection, text)
	}
	return out, nil
}

// splitClauses keeps a create request whole since its details span separators.
func splitClauses(text string) []string {
	var out []string
	for _, part := range clauseSplitter.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n := len(out); n > 0 && isCreateClause(out[n-1]) && !startsNewRequest(part) {
			out[n-1] += " " + part
			continue
		}
		out = append(out, part)
	}
	return out
}

var (
	createClauseRx = regexp.MustCompile(`(?i)\bcreate\b`)
	newRequestRx   = regexp.MustCompile(`(?i)\b(?:weather|logo|show|list|get|fetch|find|my)\b`)
)

func isCreateClause(s string) bool  { return createClauseRx.MatchString(s) }
func startsNewRequest(s string) bool { return newRequestRx.MatchString(s) }

func matchClause(clause string) (contract.ToolRequest, bool) {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(clause)
		if m == nil {
			continue
		}
		return contract.ToolRequest{Tool: r.tool, Args: r.args(m)}, true
	}
	return contract.ToolRequest{}, false
}
