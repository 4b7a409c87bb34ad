package stt

import (
	"fmt"
	"path/filepath"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/paths"
)

// Config holds STT configuration.
type Config struct {
	Provider   string           `json:"provider"`   // "whispercpp", "openai", "groq", "google"
	ScratchDir string           `json:"scratchDir"` // per-request WAV files ("" = system temp)
	WhisperCpp WhisperCppConfig `json:"whispercpp"` // Local whisper.cpp
	OpenAI     OpenAIConfig     `json:"openai"`     // OpenAI transcription API
	Groq       OpenAIConfig     `json:"groq"`       // Groq, OpenAI-compatible
	Google     GoogleConfig     `json:"google"`     // Google Cloud STT
}

// OpenAIConfig holds settings for an OpenAI-compatible transcription endpoint.
type OpenAIConfig struct {
	APIKey  string `json:"apiKey"`
	Model   string `json:"model"`   // "whisper-1", "whisper-large-v3-turbo"
	BaseURL string `json:"baseURL"` // empty = provider default
}

// GoogleConfig holds Google Cloud STT configuration.
type GoogleConfig struct {
	APIKey       string `json:"apiKey"`       // empty = Application Default Credentials
	LanguageCode string `json:"languageCode"` // e.g., "en-US", "en-IN"
}

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultGroqModel = "whisper-large-v3-turbo"
)

// DefaultConfig returns the settings used when the config file leaves STT out.
func DefaultConfig() Config {
	return Config{
		Provider: "whispercpp",
		WhisperCpp: WhisperCppConfig{
			ModelsDir: DefaultModelsDir,
			Model:     "ggml-base.en.bin",
			Language:  "en",
			BeamSize:  DefaultBeamSize,
		},
		OpenAI: OpenAIConfig{Model: "whisper-1"},
		Groq:   OpenAIConfig{Model: defaultGroqModel, BaseURL: groqBaseURL},
		Google: GoogleConfig{LanguageCode: "en-US"},
	}
}

// Validate checks that the selected provider has what it needs to start.
func (c Config) Validate() error {
	switch c.Provider {
	case "whispercpp":
		if c.WhisperCpp.Model == "" {
			return fmt.Errorf("stt.whispercpp.model is required")
		}
		if c.WhisperCpp.BeamSize < 0 {
			return fmt.Errorf("stt.whispercpp.beamSize must not be negative")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("stt.openai.apiKey is required (or set OPENAI_API_KEY)")
		}
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("stt.groq.apiKey is required (or set GROQ_API_KEY)")
		}
	case "google":
	default:
		return fmt.Errorf("unknown stt provider %q", c.Provider)
	}
	return nil
}

// NewProvider builds the configured provider. The returned provider owns
// its resources until Close.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "whispercpp":
		return newWhisperCpp(cfg.WhisperCpp)
	case "openai":
		p, err := NewOpenAIProvider("openai", cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("stt: failed to initialize openai: %w", err)
		}
		L_info("stt: openai provider initialized", "model", p.model)
		return p, nil
	case "groq":
		gc := cfg.Groq
		if gc.BaseURL == "" {
			gc.BaseURL = groqBaseURL
		}
		if gc.Model == "" {
			gc.Model = defaultGroqModel
		}
		p, err := NewOpenAIProvider("groq", gc)
		if err != nil {
			return nil, fmt.Errorf("stt: failed to initialize groq: %w", err)
		}
		L_info("stt: groq provider initialized", "model", p.model)
		return p, nil
	case "google":
		p, err := NewGoogleProvider(cfg.Google)
		if err != nil {
			return nil, fmt.Errorf("stt: failed to initialize google: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("stt: unknown provider: %s", cfg.Provider)
	}
}

func newWhisperCpp(cfg WhisperCppConfig) (Provider, error) {
	modelsDir, err := paths.ExpandTilde(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to expand models dir: %w", err)
	}
	cfg.ModelsDir = modelsDir

	if !IsModelDownloaded(modelsDir, cfg.Model) {
		return nil, fmt.Errorf("stt: model not found at %s - run 'voicegate models download %s'",
			filepath.Join(modelsDir, cfg.Model), cfg.Model)
	}

	provider, err := NewWhisperCppProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("stt: failed to initialize whispercpp: %w", err)
	}
	L_info("stt: whispercpp provider initialized", "model", cfg.Model, "beam", provider.config.BeamSize)
	return provider, nil
}
