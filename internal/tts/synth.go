// Package tts turns the assistant's reply into canonical PCM speech.
package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// ErrNothingToSay is returned when cleanup leaves no speakable text.
var ErrNothingToSay = errors.New("nothing to say after cleanup")

// Synthesizer converts text to compressed or containerized audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
	Name() string
}

// Config holds TTS configuration.
type Config struct {
	Provider       string       `json:"provider"`       // "gtts", "openai"
	Language       string       `json:"language"`       // e.g. "en"
	TimeoutSeconds int          `json:"timeoutSeconds"` // per synthesis call
	GTTS           GTTSConfig   `json:"gtts"`
	OpenAI         OpenAIConfig `json:"openai"`
	Debug          DebugConfig  `json:"debug"`
}

// GTTSConfig configures the Google Translate speech endpoint.
type GTTSConfig struct {
	BaseURL string `json:"baseURL"`
}

// OpenAIConfig configures OpenAI speech synthesis.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"` // "tts-1", "gpt-4o-mini-tts"
	Voice   string `json:"voice"` // "alloy", "nova", ...
	BaseURL string `json:"baseURL,omitempty"`
}

// DebugConfig controls the on-disk copy of each synthesized reply.
type DebugConfig struct {
	Enabled    *bool  `json:"enabled"`    // nil = true
	Dir        string `json:"dir"`        // relative to the working directory unless absolute
	PerRequest bool   `json:"perRequest"` // keep one file per request instead of overwriting
}

// IsEnabled reports whether debug copies are written.
func (d DebugConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

const (
	DefaultLanguage = "en"
	DefaultDebugDir = "debug_audio_files"
	defaultTimeout  = 30 * time.Second
)

// DefaultConfig returns the settings used when the config file leaves TTS out.
func DefaultConfig() Config {
	enabled := true
	return Config{
		Provider:       "gtts",
		Language:       DefaultLanguage,
		TimeoutSeconds: int(defaultTimeout / time.Second),
		GTTS:           GTTSConfig{BaseURL: DefaultGTTSURL},
		OpenAI:         OpenAIConfig{Model: "tts-1", Voice: "alloy"},
		Debug:          DebugConfig{Enabled: &enabled, Dir: DefaultDebugDir},
	}
}

// Timeout returns the per-call limit.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the selected provider.
func (c Config) Validate() error {
	switch c.Provider {
	case "gtts":
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("tts.openai.apiKey is required (or set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown tts provider %q", c.Provider)
	}
	if c.Language == "" {
		return fmt.Errorf("tts.language is required")
	}
	return nil
}

// NewSynthesizer builds the configured synthesizer.
func NewSynthesizer(cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case "gtts":
		L_info("tts: gtts synthesizer initialized", "url", cfg.GTTS.BaseURL)
		return NewGTTS(cfg.GTTS.BaseURL, cfg.Timeout()), nil
	case "openai":
		s, err := NewOpenAISynthesizer(cfg.OpenAI, cfg.Timeout())
		if err != nil {
			return nil, fmt.Errorf("tts: failed to initialize openai: %w", err)
		}
		L_info("tts: openai synthesizer initialized", "model", s.model, "voice", s.voice)
		return s, nil
	default:
		return nil, fmt.Errorf("tts: unknown provider: %s", cfg.Provider)
	}
}
