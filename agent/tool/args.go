package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/odoo"
)

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", contract.ErrInvalidArguments, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", contract.ErrInvalidArguments, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is empty", contract.ErrInvalidArguments, key)
	}
	return s, nil
}

func intArg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s is required", contract.ErrInvalidArguments, key)
	}
	n, err := toInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrInvalidArguments, key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", contract.ErrInvalidArguments, key)
	}
	return n, nil
}

// orderLinesArg accepts [{"product_id":1,"quantity":2}] and [[1,2]].
func orderLinesArg(args map[string]any, key string) ([]odoo.OrderLine, error) {
	raw, ok := args[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s must be a non-empty list", contract.ErrInvalidArguments, key)
	}

	lines := make([]odoo.OrderLine, 0, len(raw))
	for i, item := range raw {
		var productRaw, qtyRaw any
		switch v := item.(type) {
		case map[string]any:
			productRaw, qtyRaw = v["product_id"], v["quantity"]
			if qtyRaw == nil {
				qtyRaw = v["product_uom_qty"]
			}
		case []any:
			if len(v) != 2 {
				return nil, fmt.Errorf("%w: %s[%d] must be a (product_id, quantity) pair", contract.ErrInvalidArguments, key, i)
			}
			productRaw, qtyRaw = v[0], v[1]
		default:
			return nil, fmt.Errorf("%w: %s[%d] has unsupported type %T", contract.ErrInvalidArguments, key, i, item)
		}

		productID, err := toInt64(productRaw)
		if err != nil || productID <= 0 {
			return nil, fmt.Errorf("%w: %s[%d].product_id is invalid", contract.ErrInvalidArguments, key, i)
		}
		qty, err := toFloat64(qtyRaw)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: %s[%d].quantity is invalid", contract.ErrInvalidArguments, key, i)
		}
		lines = append(lines, odoo.OrderLine{ProductID: productID, Quantity: qty})
	}
	return lines, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
