package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/history"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/llm"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/planner"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/prompt"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/tool"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/api"
	configx "github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/config"
	_ "github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/logger/autoload"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/odoo"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/openrouter"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/rapidapi"
	redisx "github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/redis"
)

const (
	plannerRule = "rule"
	plannerLLM  = "llm"
	plannerAuto = "auto"
)

type PlannerConfig struct {
	Kind string `envconfig:"KIND" default:"auto"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("orchestrator stopped")
	}
}

func run(ctx context.Context) error {
	llmCfg := configx.MustNew[llm.Config]("LLM")
	odooCfg := configx.MustNew[odoo.Config]("ODOO")
	rapidCfg := configx.MustNew[rapidapi.Config]("RAPIDAPI")
	redisCfg := configx.MustNew[redisx.Config]("REDIS")
	upstashCfg := configx.MustNew[state.UpstashRedisConfig]("UPSTASH")
	sessionCfg := configx.MustNew[state.SessionConfig]("SESSION")
	historyCfg := configx.MustNew[history.Config]("HISTORY")
	httpCfg := configx.MustNew[api.Config]("HTTP")
	orchCfg := configx.MustNew[orchestrator.Config]("ORCHESTRATOR")
	plannerCfg := configx.MustNew[PlannerConfig]("PLANNER")

	erp := odoo.MustNew(*odooCfg)
	lookups := rapidapi.MustNew(*rapidCfg)
	if strings.TrimSpace(orchCfg.DefaultDatabase) == "" {
		orchCfg.DefaultDatabase = erp.DefaultDatabase()
	}

	var checks []api.Check

	sessions, closeSessions, err := newSessionStore(ctx, redisCfg, upstashCfg, sessionCfg)
	if err != nil {
		return err
	}
	defer closeSessions()
	if p, ok := sessions.(state.Pinger); ok {
		checks = append(checks, api.Check{Name: "sessions", Pinger: p})
	}

	toolPlanner, err := newPlanner(ctx, plannerCfg.Kind, llmCfg)
	if err != nil {
		return err
	}
	if llmCfg.Enabled() {
		prober := openrouter.NewProber(openrouter.NewClient(llmCfg.OpenRouterForPlanner()))
		checks = append(checks, api.Check{Name: "llm", Pinger: prober})
	}

	historyStore, closeHistory, err := newHistoryStore(ctx, historyCfg)
	if err != nil {
		return err
	}
	defer closeHistory()
	if p, ok := historyStore.(api.Pinger); ok {
		checks = append(checks, api.Check{Name: "history", Pinger: p})
	}

	creds := state.NewMemoryCredentialStore()
	orch, err := orchestrator.New(orchestrator.Deps{
		Planner:     toolPlanner,
		Tools:       tool.NewGateway(creds, sessions, erp, lookups),
		Credentials: creds,
		Sessions:    sessions,
		ERP:         erp,
		History:     historyStore,
	}, *orchCfg)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	if httpCfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(*httpCfg, api.NewHandler(orch, historyStore, checks...))
	return api.Serve(ctx, *httpCfg, router)
}

func newSessionStore(
	ctx context.Context,
	redisCfg *redisx.Config,
	upstashCfg *state.UpstashRedisConfig,
	sessionCfg *state.SessionConfig,
) (state.SessionStore, func(), error) {
	switch {
	case redisCfg.Enabled():
		rdb, err := redisCfg.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		store, err := state.NewRedisSessionStore(rdb, sessionCfg.Options()...)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		log.Info().Msg("session cache: redis")
		return store, func() { _ = rdb.Close() }, nil

	case strings.TrimSpace(upstashCfg.URL) != "":
		store, err := state.NewUpstashSessionStore(*upstashCfg, sessionCfg.Options()...)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("session cache: upstash")
		return store, func() {}, nil

	default:
		log.Warn().Msg("session cache: in-memory, sessions are lost on restart")
		return state.NewMemorySessionStore(), func() {}, nil
	}
}

func newPlanner(ctx context.Context, kind string, llmCfg *llm.Config) (contract.Planner, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == plannerAuto {
		kind = plannerRule
		if llmCfg.Enabled() {
			kind = plannerLLM
		}
	}

	switch kind {
	case plannerRule:
		log.Info().Msg("planner: rule")
		return planner.NewRulePlanner(), nil
	case plannerLLM:
		if err := llmCfg.Validate(); err != nil {
			return nil, err
		}
		orCfg := llmCfg.OpenRouterForPlanner()
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, err
		}
		p, err := planner.NewLLMPlanner(ctx, chatModel, prompt.LoadPromptSet().Planner, tool.Infos())
		if err != nil {
			return nil, fmt.Errorf("build llm planner: %w", err)
		}
		log.Info().Str("model", orCfg.Model).Msg("planner: llm")
		return p, nil
	default:
		return nil, fmt.Errorf("unknown PLANNER_KIND %q", kind)
	}
}

type historyBackend interface {
	contract.HistoryStore
	api.HistoryReader
}

func newHistoryStore(ctx context.Context, cfg *history.Config) (historyBackend, func(), error) {
	if !cfg.Enabled() {
		return history.NewMemoryStore(0), func() {}, nil
	}
	store, err := history.Open(ctx, *cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open history db: %w", err)
	}
	log.Info().Msg("request history: postgres")
	return store, func() { _ = store.Close() }, nil
}
