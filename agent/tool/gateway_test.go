package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/odoo"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/rapidapi"
)

// fakeERP keeps sale orders in memory so create and fetch see each other.
type fakeERP struct {
	mu        sync.Mutex
	orders    []odoo.SaleOrder
	users     []odoo.User
	err       error
	failNext  bool
	calls     int
	lastID    odoo.Identity
	nextOrder int64
}

func (f *fakeERP) SaleOrdersByUser(_ context.Context, id odoo.Identity) ([]odoo.SaleOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	var out []odoo.SaleOrder
	for _, o := range f.orders {
		if o.User != nil && o.User.ID == id.UserID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeERP) CreateSaleOrder(_ context.Context, id odoo.Identity, partnerID int64, lines []odoo.OrderLine) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastID = id
	if f.err != nil {
		return 0, f.err
	}
	if f.failNext {
		return 0, nil
	}
	f.nextOrder++
	oid := 100 + f.nextOrder
	f.orders = append(f.orders, odoo.SaleOrder{ID: oid, Name: fmt.Sprintf("S%05d", oid), User: &odoo.Many2One{ID: id.UserID}})
	return oid, nil
}

func (f *fakeERP) UsersByLogin(_ context.Context, id odoo.Identity, login string) ([]odoo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	var out []odoo.User
	for _, u := range f.users {
		if u.Login == login {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeLookups struct {
	err error
}

func (f *fakeLookups) CurrentWeather(_ context.Context, city string) (*rapidapi.Weather, error) {
	if f.err != nil {
		return nil, f.err
	}
	w := &rapidapi.Weather{}
	w.Location.Name = city
	w.Current.TempC = 31.5
	w.Current.Condition.Text = "Sunny"
	return w, nil
}

func (f *fakeLookups) FinanceLogo(_ context.Context, stock string) (*rapidapi.Logo, error) {
	if f.err != nil {
		return nil, f.err
	}
	if stock == "NONE" {
		return &rapidapi.Logo{}, nil
	}
	url := "https://logo.example/" + stock + ".png"
	return &rapidapi.Logo{Logo: &url}, nil
}

type gatewayFixture struct {
	*Gateway
	creds    *state.MemoryCredentialStore
	sessions *state.MemorySessionStore
	erp      *fakeERP
	lookups  *fakeLookups
}

func newTestGateway(t *testing.T) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		creds:    state.NewMemoryCredentialStore(),
		sessions: state.NewMemorySessionStore(),
		erp:      &fakeERP{},
		lookups:  &fakeLookups{},
	}
	f.Gateway = NewGateway(f.creds, f.sessions, f.erp, f.lookups)
	return f
}

func (f *gatewayFixture) login(t *testing.T, username string, uid int64) {
	t.Helper()
	ctx := context.Background()
	if err := f.creds.Set(ctx, state.Credentials{Database: "postgres", Username: username, Password: "secret"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.sessions.Put(ctx, state.SessionRecord{Username: username, UserID: uid}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func expectError(t *testing.T, res contract.ToolResult, code int) contract.ErrorResult {
	t.Helper()
	errResult, ok := res.(contract.ErrorResult)
	if !ok {
		t.Fatalf("expected ErrorResult code %d, got %#v", code, res)
	}
	if errResult.Code != code {
		t.Fatalf("error code = %d, want %d (%s)", errResult.Code, code, errResult.Message)
	}
	return errResult
}

func TestFetchWeather(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	res := g.Run(context.Background(), "", contract.ToolRequest{
		Tool: contract.ToolFetchWeather,
		Args: map[string]any{"city": "Karachi"},
	})
	w, ok := res.(contract.WeatherResult)
	if !ok {
		t.Fatalf("expected WeatherResult, got %#v", res)
	}
	if w.Location != "Karachi" || w.Condition != "Sunny" {
		t.Fatalf("unexpected weather: %+v", w)
	}
}

func TestFetchWeatherFailures(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	expectError(t, g.Run(context.Background(), "", contract.ToolRequest{Tool: contract.ToolFetchWeather}), contract.CodeInvalidArguments)

	g.lookups.err = errors.New("dial tcp: timeout")
	expectError(t, g.Run(context.Background(), "", contract.ToolRequest{
		Tool: contract.ToolFetchWeather,
		Args: map[string]any{"city": "Karachi"},
	}), contract.CodeRemoteFailure)
}

func TestFetchFinanceLogo(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	res := g.Run(context.Background(), "", contract.ToolRequest{
		Tool: contract.ToolFetchFinanceLogo,
		Args: map[string]any{"stock": "AAPL"},
	})
	logo, ok := res.(contract.LogoResult)
	if !ok || logo.LogoURL == nil || *logo.LogoURL != "https://logo.example/AAPL.png" {
		t.Fatalf("unexpected result: %#v", res)
	}

	res = g.Run(context.Background(), "", contract.ToolRequest{
		Tool: contract.ToolFetchFinanceLogo,
		Args: map[string]any{"stock": "NONE"},
	})
	logo, ok = res.(contract.LogoResult)
	if !ok || logo.LogoURL != nil {
		t.Fatalf("expected nil logo, got %#v", res)
	}
}

func TestERPToolsWithoutSessionSkipNetwork(t *testing.T) {
	t.Parallel()

	reqs := []contract.ToolRequest{
		{Tool: contract.ToolFetchSaleOrdersByUser},
		{Tool: contract.ToolCreateSaleOrder, Args: map[string]any{
			"partner_id":  float64(3),
			"order_lines": []any{map[string]any{"product_id": float64(11), "quantity": float64(2)}},
		}},
		{Tool: contract.ToolFetchUserByLogin, Args: map[string]any{"login": "alice"}},
	}

	g := newTestGateway(t)
	for _, res := range g.Execute(context.Background(), "alice", reqs) {
		expectError(t, res, contract.CodeNoSession)
	}

	g.login(t, "alice", 7)
	if err := g.sessions.MarkExpired(context.Background(), "alice"); err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}
	for _, res := range g.Execute(context.Background(), "alice", reqs) {
		expectError(t, res, contract.CodeNoSession)
	}

	if g.erp.calls != 0 {
		t.Fatalf("erp must not be called without a usable session, got %d calls", g.erp.calls)
	}
}

func TestFetchSaleOrdersUsesCachedIdentity(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	g.erp.orders = []odoo.SaleOrder{
		{ID: 1, Name: "S00001", AmountTotal: 10, User: &odoo.Many2One{ID: 7, Name: "Alice"}, Company: &odoo.Many2One{ID: 1, Name: "ACME"}},
		{ID: 2, Name: "S00002", AmountTotal: 20, User: &odoo.Many2One{ID: 8, Name: "Bob"}},
	}

	res := g.Run(context.Background(), "alice", contract.ToolRequest{
		Tool: contract.ToolFetchSaleOrdersByUser,
		Args: map[string]any{"user_id": float64(8)},
	})
	list, ok := res.(contract.SaleOrderListResult)
	if !ok {
		t.Fatalf("expected SaleOrderListResult, got %#v", res)
	}
	if len(list.SaleOrders) != 1 || list.SaleOrders[0].Name != "S00001" {
		t.Fatalf("unexpected orders: %+v", list.SaleOrders)
	}
	if list.SaleOrders[0].Company == nil || list.SaleOrders[0].Company.Name != "ACME" {
		t.Fatalf("company ref not mapped: %+v", list.SaleOrders[0])
	}
	if g.erp.lastID != (odoo.Identity{Database: "postgres", UserID: 7, Password: "secret"}) {
		t.Fatalf("unexpected identity sent to erp: %+v", g.erp.lastID)
	}
}

func TestFetchSaleOrdersEmpty(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)

	res := g.Run(context.Background(), "alice", contract.ToolRequest{Tool: contract.ToolFetchSaleOrdersByUser})
	errResult := expectError(t, res, contract.CodeNotFound)
	if errResult.Message != "No sale orders found." {
		t.Fatalf("unexpected message: %q", errResult.Message)
	}
}

func TestAuthFaultMarksSessionExpired(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	g.login(t, "bob", 8)
	g.erp.err = odoo.ErrAccessDenied

	res := g.Run(context.Background(), "alice", contract.ToolRequest{Tool: contract.ToolFetchSaleOrdersByUser})
	expectError(t, res, contract.CodeSessionExpired)

	alice, err := g.sessions.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get(alice) error = %v", err)
	}
	if !alice.SessionExpired {
		t.Fatal("expected alice's session to be marked expired")
	}
	bob, err := g.sessions.Get(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Get(bob) error = %v", err)
	}
	if bob.SessionExpired {
		t.Fatal("bob's session must not be touched")
	}
	if g.erp.calls != 1 {
		t.Fatalf("expected a single erp call without retry, got %d", g.erp.calls)
	}
}

func TestTransportFailureKeepsSession(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	g.erp.err = errors.New("connection reset")

	res := g.Run(context.Background(), "alice", contract.ToolRequest{
		Tool: contract.ToolFetchUserByLogin,
		Args: map[string]any{"login": "alice"},
	})
	expectError(t, res, contract.CodeRemoteFailure)

	rec, _ := g.sessions.Get(context.Background(), "alice")
	if rec.SessionExpired {
		t.Fatal("non-auth failures must not expire the session")
	}
}

func TestCreateSaleOrderThenFetchIncludesIt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := newTestGateway(t)
	g.login(t, "alice", 7)

	res := g.Run(ctx, "alice", contract.ToolRequest{
		Tool: contract.ToolCreateSaleOrder,
		Args: map[string]any{
			"partner_id":  float64(3),
			"order_lines": []any{[]any{float64(11), float64(2)}},
		},
	})
	created, ok := res.(contract.SaleOrderCreatedResult)
	if !ok {
		t.Fatalf("expected SaleOrderCreatedResult, got %#v", res)
	}

	res = g.Run(ctx, "alice", contract.ToolRequest{Tool: contract.ToolFetchSaleOrdersByUser})
	list, ok := res.(contract.SaleOrderListResult)
	if !ok {
		t.Fatalf("expected SaleOrderListResult, got %#v", res)
	}
	found := false
	for _, o := range list.SaleOrders {
		if o.ID == created.OrderID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created order %d missing from %+v", created.OrderID, list.SaleOrders)
	}
}

func TestCreateSaleOrderFalsyID(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	g.erp.failNext = true

	res := g.Run(context.Background(), "alice", contract.ToolRequest{
		Tool: contract.ToolCreateSaleOrder,
		Args: map[string]any{
			"partner_id":  float64(3),
			"order_lines": []any{map[string]any{"product_id": float64(11), "quantity": float64(1)}},
		},
	})
	expectError(t, res, contract.CodeCreationFailed)
}

func TestCreateSaleOrderValidatesArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing partner", args: map[string]any{"order_lines": []any{[]any{float64(1), float64(1)}}}},
		{name: "fractional partner", args: map[string]any{"partner_id": 1.5, "order_lines": []any{[]any{float64(1), float64(1)}}}},
		{name: "no lines", args: map[string]any{"partner_id": float64(3), "order_lines": []any{}}},
		{name: "bad pair", args: map[string]any{"partner_id": float64(3), "order_lines": []any{[]any{float64(1)}}}},
		{name: "zero quantity", args: map[string]any{"partner_id": float64(3), "order_lines": []any{map[string]any{"product_id": float64(1), "quantity": float64(0)}}}},
	}

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Run(context.Background(), "alice", contract.ToolRequest{Tool: contract.ToolCreateSaleOrder, Args: tt.args})
			expectError(t, res, contract.CodeInvalidArguments)
		})
	}
	if g.erp.calls != 0 {
		t.Fatalf("invalid arguments must not reach the erp, got %d calls", g.erp.calls)
	}
}

func TestFetchUserByLogin(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.login(t, "alice", 7)
	g.erp.users = []odoo.User{{ID: 7, Name: "Alice", Login: "alice@example.com"}}

	res := g.Run(context.Background(), "alice", contract.ToolRequest{
		Tool: contract.ToolFetchUserByLogin,
		Args: map[string]any{"login": "alice@example.com"},
	})
	users, ok := res.(contract.UserListResult)
	if !ok || len(users.Users) != 1 || users.Users[0].ID != 7 {
		t.Fatalf("unexpected result: %#v", res)
	}

	res = g.Run(context.Background(), "alice", contract.ToolRequest{
		Tool: contract.ToolFetchUserByLogin,
		Args: map[string]any{"login": "ghost@example.com"},
	})
	expectError(t, res, contract.CodeNotFound)
}
