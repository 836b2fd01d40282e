package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/auth"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/state"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	APIKey          string        `envconfig:"API_KEY"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"90s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	ReleaseMode     bool          `envconfig:"RELEASE_MODE" default:"true"`
}

// Service is the orchestrator surface served over HTTP.
type Service interface {
	HandleRequest(ctx context.Context, req contract.Request) contract.Response
	StoreCredentials(ctx context.Context, creds state.Credentials) error
	SessionStatus(ctx context.Context, username string) (auth.SessionStatus, error)
	Login(ctx context.Context, username string) (int64, error)
}

type HistoryReader interface {
	Recent(ctx context.Context, username string, limit int) ([]contract.HistoryEntry, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one dependency probed by /ready.
type Check struct {
	Name   string
	Pinger Pinger
}

type Handler struct {
	svc     Service
	history HistoryReader
	checks  []Check
}

func NewHandler(svc Service, history HistoryReader, checks ...Check) *Handler {
	return &Handler{svc: svc, history: history, checks: checks}
}

// NewRouter leaves the gin mode alone; callers set it once at startup.
func NewRouter(cfg Config, h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())

	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", h.Ready)

	v1 := router.Group("/v1")
	v1.Use(apiKeyMiddleware(cfg.APIKey))
	{
		v1.POST("/process-query", h.ProcessQuery)
		v1.PUT("/credentials", h.StoreCredentials)
		v1.GET("/sessions/:username", h.SessionStatus)
		v1.POST("/sessions/:username/login", h.Login)
		v1.GET("/history/:username", h.History)
	}
	return router
}
