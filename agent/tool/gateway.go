package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/odoo"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/rapidapi"
)

const (
	msgNoSession      = "No user_id available. Please log in first."
	msgSessionExpired = "Session has expired. Please log in again."
	msgNoSaleOrders   = "No sale orders found."
	msgNoUsers        = "No users found."
	msgCreateFailed   = "Failed to create the sale order."
)

// ERP is the subset of the ERP client the tools call.
type ERP interface {
	SaleOrdersByUser(ctx context.Context, id odoo.Identity) ([]odoo.SaleOrder, error)
	CreateSaleOrder(ctx context.Context, id odoo.Identity, partnerID int64, lines []odoo.OrderLine) (int64, error)
	UsersByLogin(ctx context.Context, id odoo.Identity, login string) ([]odoo.User, error)
}

// Lookups is the subset of the RapidAPI client the public tools call.
type Lookups interface {
	CurrentWeather(ctx context.Context, city string) (*rapidapi.Weather, error)
	FinanceLogo(ctx context.Context, stock string) (*rapidapi.Logo, error)
}

var (
	_ ERP     = (*odoo.Client)(nil)
	_ Lookups = (*rapidapi.Client)(nil)
)

// Executor runs one tool for username and always yields a result.
type Executor func(ctx context.Context, username string, args map[string]any) contract.ToolResult

type Gateway struct {
	creds     state.CredentialStore
	sessions  state.SessionStore
	erp       ERP
	lookups   Lookups
	executors map[string]Executor
}

var _ contract.ToolGateway = (*Gateway)(nil)

func NewGateway(creds state.CredentialStore, sessions state.SessionStore, erp ERP, lookups Lookups) *Gateway {
	g := &Gateway{
		creds:    creds,
		sessions: sessions,
		erp:      erp,
		lookups:  lookups,
	}
	g.executors = map[string]Executor{
		contract.ToolFetchWeather:          g.fetchWeather,
		contract.ToolFetchFinanceLogo:      g.fetchFinanceLogo,
		contract.ToolFetchSaleOrdersByUser: g.fetchSaleOrdersByUser,
		contract.ToolCreateSaleOrder:       g.createSaleOrder,
		contract.ToolFetchUserByLogin:      g.fetchUserByLogin,
	}
	return g
}

func (g *Gateway) Execute(ctx context.Context, username string, reqs []contract.ToolRequest) []contract.ToolResult {
	results := make([]contract.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, g.Run(ctx, username, req))
	}
	return results
}

// Run executes a single tool invocation.
func (g *Gateway) Run(ctx context.Context, username string, req contract.ToolRequest) contract.ToolResult {
	exec, ok := g.executors[req.Tool]
	if !ok {
		return contract.ErrorResult{
			Code:    contract.CodeToolSelection,
			Message: fmt.Sprintf("tool=%s is not available", req.Tool),
		}
	}

	args := req.Args
	if args == nil {
		args = map[string]any{}
	}

	started := time.Now()
	result := exec(ctx, username, args)

	evt := log.Info()
	if errResult, failed := result.(contract.ErrorResult); failed {
		evt = log.Warn().Int("code", errResult.Code).Str("error", errResult.Message)
	}
	evt.Str("tool", req.Tool).
		Str("username", username).
		Str("result", string(result.ToolType())).
		Dur("elapsed", time.Since(started)).
		Msg("tool executed")
	return result
}

func (g *Gateway) fetchWeather(ctx context.Context, _ string, args map[string]any) contract.ToolResult {
	city, err := stringArg(args, "city")
	if err != nil {
		return contract.ErrorResultFrom(err)
	}

	w, err := g.lookups.CurrentWeather(ctx, city)
	if err != nil {
		return remoteFailure("fetch weather", err)
	}
	location := w.Location.Name
	if location == "" {
		location = city
	}
	return contract.WeatherResult{
		Location:     location,
		Region:       w.Location.Region,
		Country:      w.Location.Country,
		Condition:    w.Current.Condition.Text,
		TemperatureC: w.Current.TempC,
		TemperatureF: w.Current.TempF,
		Humidity:     w.Current.Humidity,
		WindKph:      w.Current.WindKph,
	}
}

func (g *Gateway) fetchFinanceLogo(ctx context.Context, _ string, args map[string]any) contract.ToolResult {
	stock, err := stringArg(args, "stock")
	if err != nil {
		return contract.ErrorResultFrom(err)
	}

	logo, err := g.lookups.FinanceLogo(ctx, stock)
	if err != nil {
		return remoteFailure("fetch finance logo", err)
	}
	return contract.LogoResult{Stock: stock, LogoURL: logo.Logo}
}

func remoteFailure(op string, err error) contract.ErrorResult {
	return contract.ErrorResult{
		Code:    contract.CodeRemoteFailure,
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}

// identity rebuilds the ERP identity from the session cache. Anything the
// caller passed as a user id is ignored.
func (g *Gateway) identity(ctx context.Context, username string) (odoo.Identity, *contract.ErrorResult) {
	noSession := &contract.ErrorResult{Code: contract.CodeNoSession, Message: msgNoSession}

	rec, err := g.sessions.Get(ctx, username)
	if err != nil {
		if !errors.Is(err, state.ErrSessionNotFound) && !errors.Is(err, state.ErrInvalidUsername) {
			log.Error().Err(err).Str("username", username).Msg("read session failed")
		}
		return odoo.Identity{}, noSession
	}
	if !rec.Usable() {
		return odoo.Identity{}, noSession
	}

	creds, err := g.creds.Get(ctx, username)
	if err != nil || !creds.Complete() {
		return odoo.Identity{}, noSession
	}
	return odoo.Identity{Database: creds.Database, UserID: rec.UserID, Password: creds.Password}, nil
}

// erpFailure flips the cached session to expired when the ERP rejected the identity.
func (g *Gateway) erpFailure(ctx context.Context, username, op string, err error) contract.ErrorResult {
	if !odoo.IsAuthFault(err) {
		return remoteFailure(op, err)
	}
	if markErr := g.sessions.MarkExpired(ctx, username); markErr != nil {
		log.Error().Err(markErr).Str("username", username).Msg("mark session expired failed")
	}
	log.Warn().Str("username", username).Str("op", op).Msg("erp rejected session, marked expired")
	return contract.ErrorResult{Code: contract.CodeSessionExpired, Message: msgSessionExpired}
}

func (g *Gateway) fetchSaleOrdersByUser(ctx context.Context, username string, _ map[string]any) contract.ToolResult {
	id, noSession := g.identity(ctx, username)
	if noSession != nil {
		return *noSession
	}

	orders, err := g.erp.SaleOrdersByUser(ctx, id)
	if err != nil {
		return g.erpFailure(ctx, username, "fetch sale orders", err)
	}
	if len(orders) == 0 {
		return contract.ErrorResult{Code: contract.CodeNotFound, Message: msgNoSaleOrders}
	}

	out := make([]contract.SaleOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, contract.SaleOrder{
			ID:          o.ID,
			Name:        o.Name,
			State:       o.State,
			DateOrder:   o.DateOrder,
			AmountTotal: o.AmountTotal,
			Company:     toRef(o.Company),
			User:        toRef(o.User),
		})
	}
	return contract.SaleOrderListResult{SaleOrders: out}
}

func (g *Gateway) createSaleOrder(ctx context.Context, username string, args map[string]any) contract.ToolResult {
	partnerID, err := intArg(args, "partner_id")
	if err != nil {
		return contract.ErrorResultFrom(err)
	}
	lines, err := orderLinesArg(args, "order_lines")
	if err != nil {
		return contract.ErrorResultFrom(err)
	}

	id, noSession := g.identity(ctx, username)
	if noSession != nil {
		return *noSession
	}

	orderID, err := g.erp.CreateSaleOrder(ctx, id, partnerID, lines)
	if err != nil {
		return g.erpFailure(ctx, username, "create sale order", err)
	}
	if orderID <= 0 {
		return contract.ErrorResult{Code: contract.CodeCreationFailed, Message: msgCreateFailed}
	}
	return contract.SaleOrderCreatedResult{OrderID: orderID}
}

func (g *Gateway) fetchUserByLogin(ctx context.Context, username string, args map[string]any) contract.ToolResult {
	login, err := stringArg(args, "login")
	if err != nil {
		return contract.ErrorResultFrom(err)
	}

	id, noSession := g.identity(ctx, username)
	if noSession != nil {
		return *noSession
	}

	users, err := g.erp.UsersByLogin(ctx, id, login)
	if err != nil {
		return g.erpFailure(ctx, username, "fetch user by login", err)
	}
	if len(users) == 0 {
		return contract.ErrorResult{Code: contract.CodeNotFound, Message: msgNoUsers}
	}

	out := make([]contract.User, 0, len(users))
	for _, u := range users {
		out = append(out, contract.User{ID: u.ID, Name: u.Name, Login: u.Login})
	}
	return contract.UserListResult{Users: out}
}

func toRef(m *odoo.Many2One) *contract.Ref {
	if m == nil {
		return nil
	}
	return &contract.Ref{ID: m.ID, Name: m.Name}
}
