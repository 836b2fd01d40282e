package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/auth"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	nodex "github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/nodes/orchestrator"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/observers"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/tool"
)

type Config struct {
	MultiTool       bool   `envconfig:"MULTI_TOOL" default:"true"`
	DefaultDatabase string `envconfig:"DEFAULT_DATABASE"`
}

// Deps are the collaborators of one Orchestrator. History is optional.
type Deps struct {
	Planner     contract.Planner
	Tools       contract.ToolGateway
	Credentials state.CredentialStore
	Sessions    state.SessionStore
	ERP         auth.ERPLogin
	History     contract.HistoryStore
}

type Orchestrator struct {
	planner       contract.Planner
	tools         contract.ToolGateway
	creds         state.CredentialStore
	validator     *auth.Validator
	authenticator *auth.Authenticator
	history       contract.HistoryStore
	catalog       []*schema.ToolInfo

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	multiTool       bool
	defaultDatabase string

	newID func() string
}

func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if deps.Tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if deps.ERP == nil {
		return nil, errors.New("erp client is required")
	}
	history := deps.History
	if history == nil {
		history = noopHistoryStore{}
	}

	o := &Orchestrator{
		planner:         deps.Planner,
		tools:           deps.Tools,
		creds:           deps.Credentials,
		validator:       auth.NewValidator(deps.Credentials, deps.Sessions),
		authenticator:   auth.NewAuthenticator(deps.Credentials, deps.Sessions, deps.ERP),
		history:         history,
		catalog:         tool.Infos(),
		multiTool:       cfg.MultiTool,
		defaultDatabase: strings.TrimSpace(cfg.DefaultDatabase),
		newID:           uuid.NewString,
	}

	graphRunner, err := o.compileHandleRequestGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleRequest runs one request to a terminal state. Every failure is
// reported inside the Response.
func (o *Orchestrator) HandleRequest(ctx context.Context, req contract.Request) contract.Response {
	requestID := o.newID()
	logger := log.With().Str("request_id", requestID).Str("username", req.Username).Logger()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		RequestID: requestID,
		Username:  req.Username,
		Text:      req.Text,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logger.Error().Err(err).Msg("orchestrator graph failed")
		res := contract.ErrorResultFrom(err)
		if res.Code == contract.CodeInternal {
			res.Message = "internal error"
		}
		out.Response = contract.Response{
			RequestID: requestID,
			Status:    contract.StatusFailed,
			Message:   contract.Render(res),
			Error:     &res,
		}
	}
	resp := out.Response

	entry := contract.HistoryEntry{
		RequestID: requestID,
		Username:  req.Username,
		Text:      req.Text,
		Tools:     out.Tools,
		Status:    resp.Status,
	}
	if resp.Error != nil {
		entry.ErrorCode = resp.Error.Code
	}
	if err := o.history.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Msg("record request history failed")
	}

	logger.Info().
		Str("status", string(resp.Status)).
		Strs("tools", entry.Tools).
		Bool("logged_in", out.LoggedIn).
		Msg("request handled")
	return resp
}

// StoreCredentials saves the ERP login of a user. An empty database falls
// back to the configured default.
func (o *Orchestrator) StoreCredentials(ctx context.Context, creds state.Credentials) error {
	if strings.TrimSpace(creds.Database) == "" {
		creds.Database = o.defaultDatabase
	}
	if !creds.Complete() {
		return fmt.Errorf("%w: database, username and password are required", contract.ErrMissingCredentials)
	}
	if err := o.creds.Set(ctx, creds); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	log.Info().Str("username", strings.TrimSpace(creds.Username)).Msg("credentials stored")
	return nil
}

func (o *Orchestrator) SessionStatus(ctx context.Context, username string) (auth.SessionStatus, error) {
	return o.validator.CheckSession(ctx, username)
}

func (o *Orchestrator) Login(ctx context.Context, username string) (int64, error) {
	return o.authenticator.Login(ctx, username)
}

type noopHistoryStore struct{}

func (noopHistoryStore) Record(context.Context, contract.HistoryEntry) error {
	return nil
}
