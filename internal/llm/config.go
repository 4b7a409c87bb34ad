package llm

import (
	"fmt"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultSystemPrompt  = "You are a friendly helpdesk assistant for JECRC University, located in Jaipur, Rajasthan. Use short, clear sentences."
	DefaultPromptPrefix  = "User query: "
	DefaultTemperature   = 0.7
	DefaultTimeout       = 20 * time.Second
)

// Config contains completion settings.
type Config struct {
	Provider       string       `json:"provider"`       // "gemini", "openai"
	SystemPrompt   string       `json:"systemPrompt"`   // Persona sent as the system instruction
	PromptPrefix   string       `json:"promptPrefix"`   // Prepended to the transcript
	Temperature    float32      `json:"temperature"`    // 0 = DefaultTemperature
	TimeoutSeconds int          `json:"timeoutSeconds"` // Per-call limit (0 = 20)
	Gemini         GeminiConfig `json:"gemini"`
	OpenAI         OpenAIConfig `json:"openai"`
}

// GeminiConfig holds Gemini REST settings.
type GeminiConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	BaseURL string `json:"baseURL"`
}

// OpenAIConfig holds settings for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`
	BaseURL string `json:"baseURL,omitempty"`
}

// DefaultConfig returns the settings used when the config file leaves LLM out.
func DefaultConfig() Config {
	return Config{
		Provider:       "gemini",
		SystemPrompt:   DefaultSystemPrompt,
		PromptPrefix:   DefaultPromptPrefix,
		Temperature:    DefaultTemperature,
		TimeoutSeconds: int(DefaultTimeout / time.Second),
		Gemini: GeminiConfig{
			Model:   DefaultGeminiModel,
			BaseURL: DefaultGeminiBaseURL,
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
	}
}

// Timeout returns the per-call limit.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the selected provider. A missing API key is not fatal:
// the completion stage soft-fails, so the service still answers.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			L_warn("llm: gemini API key not configured, every reply will be the fallback text")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("llm.openai.apiKey is required (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.Temperature)
	}
	return nil
}

// NewCompleter builds the configured completer.
func NewCompleter(cfg Config) (Completer, error) {
	opts := Options{
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		Timeout:      cfg.Timeout(),
	}
	switch cfg.Provider {
	case "gemini":
		opts.APIKey = cfg.Gemini.APIKey
		opts.Model = cfg.Gemini.Model
		opts.BaseURL = cfg.Gemini.BaseURL
		return NewGeminiClient(opts), nil
	case "openai":
		opts.APIKey = cfg.OpenAI.APIKey
		opts.Model = cfg.OpenAI.Model
		opts.BaseURL = cfg.OpenAI.BaseURL
		return NewOpenAIClient(opts)
	default:
		return nil, fmt.Errorf("llm: unknown provider: %s", cfg.Provider)
	}
}

// Options configures a Completer.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Temperature  float32
	Timeout      time.Duration
}

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
