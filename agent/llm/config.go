package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	openrouterx "github.com/tanpawarit/storage-chat-agent/pkg/openrouter"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gemini-2.0-flash-lite"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"150"`
	Temperature        float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	RequestsPerSecond  float64       `envconfig:"REQUESTS_PER_SECOND" split_words:"true" default:"0"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	// AllowAnyModel accepts model ids outside the built-in catalog, for
	// endpoints such as OpenRouter or a local server.
	AllowAnyModel bool `envconfig:"ALLOW_ANY_MODEL" split_words:"true" default:"false"`
}

// Validate checks the fields that must be present before any request is
// made. An empty API key is not an error here: it can be supplied later
// through Settings.
func (c Config) Validate() error {
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion token must be > 0", contractx.ErrValidation)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be within [0, 2]", contractx.ErrValidation)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must be >= 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) Client() openrouterx.Config {
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return openrouterx.Config{
		BaseURL:  baseURL,
		APIKey:   strings.TrimSpace(c.APIKey),
		Timeout:  c.Timeout,
		SiteURL:  strings.TrimSpace(c.SiteURL),
		SiteName: strings.TrimSpace(c.SiteName),
	}
}
