package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/agent/contract"
	"github.com/tanpawarit/Chative-ERP-Tool-Orchestrator/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PlannerModel       string  `envconfig:"PLANNER_MODEL" split_words:"true"`
	PlannerTemperature float32 `envconfig:"PLANNER_TEMPERATURE" split_words:"true" default:"-1"`
}

// Enabled reports whether an LLM provider is configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contract.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" && strings.TrimSpace(c.PlannerModel) == "" {
		return fmt.Errorf("%w: a model is required", contract.ErrValidation)
	}
	return nil
}

// OpenRouterForPlanner applies the planner overrides on top of the defaults.
func (c Config) OpenRouterForPlanner() openrouter.Config {
	modelName := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(c.PlannerModel); v != "" {
		modelName = v
	}
	temp := c.Temperature
	if c.PlannerTemperature >= 0 {
		temp = c.PlannerTemperature
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouter.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
