package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-support/agent/contract"
	openrouterx "github.com/tanpawarit/chative-support/pkg/openrouter"
)

const (
	DriverSDK  = "sdk"
	DriverEino = "eino"
)

type Config struct {
	Driver             string        `envconfig:"DRIVER" split_words:"true" default:"sdk"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" split_words:"true" default:"2"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	ExcludeReasoning   bool          `envconfig:"EXCLUDE_REASONING" split_words:"true" default:"false"`

	RouterModel        string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	SupportModel       string  `envconfig:"SUPPORT_MODEL" split_words:"true"`
	OrderModel         string  `envconfig:"ORDER_MODEL" split_words:"true"`
	BillingModel       string  `envconfig:"BILLING_MODEL" split_words:"true"`
	RouterTemperature  float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	SupportTemperature float32 `envconfig:"SUPPORT_TEMPERATURE" split_words:"true" default:"-1"`
	OrderTemperature   float32 `envconfig:"ORDER_TEMPERATURE" split_words:"true" default:"-1"`
	BillingTemperature float32 `envconfig:"BILLING_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch c.driver() {
	case DriverSDK, DriverEino:
	default:
		return fmt.Errorf("%w: unknown llm driver %q", contractx.ErrValidation, c.Driver)
	}
	return nil
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverSDK
	}
	return d
}

// DefaultTemperature is the sampling temperature an agent uses without an override.
func DefaultTemperature(agentType contractx.AgentType) float32 {
	switch agentType {
	case contractx.AgentTypeRouter:
		return 0.3
	case contractx.AgentTypeSupport:
		return 0.7
	default:
		return 0.5
	}
}

func (c Config) TemperatureFor(agentType contractx.AgentType) float32 {
	override := float32(-1)
	switch agentType {
	case contractx.AgentTypeRouter:
		override = c.RouterTemperature
	case contractx.AgentTypeSupport:
		override = c.SupportTemperature
	case contractx.AgentTypeOrder:
		override = c.OrderTemperature
	case contractx.AgentTypeBilling:
		override = c.BillingTemperature
	}
	if override >= 0 {
		return override
	}
	return DefaultTemperature(agentType)
}

func (c Config) ModelFor(agentType contractx.AgentType) string {
	var override string
	switch agentType {
	case contractx.AgentTypeRouter:
		override = c.RouterModel
	case contractx.AgentTypeSupport:
		override = c.SupportModel
	case contractx.AgentTypeOrder:
		override = c.OrderModel
	case contractx.AgentTypeBilling:
		override = c.BillingModel
	}
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return strings.TrimSpace(c.Model)
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.ModelFor(agentType),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.TemperatureFor(agentType),
		Timeout:            c.Timeout,
		MaxRetries:         c.MaxRetries,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		ExcludeReasoning:   c.ExcludeReasoning,
	}
}

// OracleFor builds the completion backend for one agent using the configured driver.
func (c Config) OracleFor(ctx context.Context, agentType contractx.AgentType) (Oracle, error) {
	orCfg := c.OpenRouterFor(agentType)

	switch c.driver() {
	case DriverEino:
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s chat model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return NewChatModelOracle(chatModel), nil
	default:
		client, err := openrouterx.NewClient(orCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s client: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return NewSDKOracle(client, orCfg.Model, int64(c.MaxCompletionToken)), nil
	}
}
