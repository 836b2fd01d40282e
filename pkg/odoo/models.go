package odoo

import (
	"context"
	"fmt"
	"strings"
)

const (
	modelSaleOrder = "sale.order"
	modelUsers     = "res.users"
)

var saleOrderFields = []any{"id", "name", "state", "date_order", "amount_total", "company_id", "user_id"}

var userFields = []any{"id", "name", "login"}

// Many2One is a relational field as returned by read: [id, display_name].
type Many2One struct {
	ID   int64
	Name string
}

type SaleOrder struct {
	ID          int64
	Name        string
	State       string
	DateOrder   string
	AmountTotal float64
	Company     *Many2One
	User        *Many2One
}

type User struct {
	ID    int64
	Name  string
	Login string
}

type OrderLine struct {
	ProductID int64
	Quantity  float64
}

// SaleOrdersByUser searches sale.order for id.UserID then reads the matches.
func (c *Client) SaleOrdersByUser(ctx context.Context, id Identity) ([]SaleOrder, error) {
	var ids []any
	domain := []any{[]any{[]any{"user_id", "=", id.UserID}}}
	if err := c.ExecuteKw(ctx, id, modelSaleOrder, "search", domain, nil, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []any
	kwargs := map[string]any{"fields": saleOrderFields}
	if err := c.ExecuteKw(ctx, id, modelSaleOrder, "read", []any{ids}, kwargs, &rows); err != nil {
		return nil, err
	}

	orders := make([]SaleOrder, 0, len(rows))
	for _, row := range rows {
		rec, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("odoo: unexpected sale.order row %T", row)
		}
		orders = append(orders, decodeSaleOrder(rec))
	}
	return orders, nil
}

// CreateSaleOrder creates a sale.order for partnerID and returns its id.
// A zero id means the server answered without creating anything.
func (c *Client) CreateSaleOrder(ctx context.Context, id Identity, partnerID int64, lines []OrderLine) (int64, error) {
	orderLines := make([]any, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, []any{0, 0, map[string]any{
			"product_id":      l.ProductID,
			"product_uom_qty": l.Quantity,
		}})
	}
	values := map[string]any{
		"partner_id": partnerID,
		"order_line": orderLines,
	}

	var reply any
	if err := c.ExecuteKw(ctx, id, modelSaleOrder, "create", []any{values}, nil, &reply); err != nil {
		return 0, err
	}
	created, _ := asInt64(reply)
	return created, nil
}

func (c *Client) UsersByLogin(ctx context.Context, id Identity, login string) ([]User, error) {
	var rows []any
	domain := []any{[]any{[]any{"login", "=", strings.TrimSpace(login)}}}
	kwargs := map[string]any{"fields": userFields}
	if err := c.ExecuteKw(ctx, id, modelUsers, "search_read", domain, kwargs, &rows); err != nil {
		return nil, err
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		rec, ok := row.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("odoo: unexpected res.users row %T", row)
		}
		uid, _ := asInt64(rec["id"])
		users = append(users, User{
			ID:    uid,
			Name:  asString(rec["name"]),
			Login: asString(rec["login"]),
		})
	}
	return users, nil
}

func decodeSaleOrder(rec map[string]any) SaleOrder {
	oid, _ := asInt64(rec["id"])
	amount, _ := asFloat64(rec["amount_total"])
	return SaleOrder{
		ID:          oid,
		Name:        asString(rec["name"]),
		State:       asString(rec["state"]),
		DateOrder:   asString(rec["date_order"]),
		AmountTotal: amount,
		Company:     asMany2One(rec["company_id"]),
		User:        asMany2One(rec["user_id"]),
	}
}

// Odoo sends false for every unset field, so the helpers treat any
// unexpected type as empty.

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, n != 0
	case int:
		return int64(n), n != 0
	case int32:
		return int64(n), n != 0
	case float64:
		return int64(n), n != 0
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMany2One(v any) *Many2One {
	pair, ok := v.([]any)
	if !ok || len(pair) == 0 {
		return nil
	}
	id, ok := asInt64(pair[0])
	if !ok {
		return nil
	}
	m := &Many2One{ID: id}
	if len(pair) > 1 {
		m.Name = asString(pair[1])
	}
	return m
}
