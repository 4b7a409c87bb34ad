package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/paths"
)

// Environment variables that override file values when set.
const (
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGroqKey   = "GROQ_API_KEY"
	EnvGoogleKey = "GOOGLE_API_KEY"
	EnvListen    = "VOICEGATE_LISTEN"
	EnvLogLevel  = "VOICEGATE_LOG_LEVEL"
)

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	Path   string // "" when running on defaults only
}

// Load reads the config at path, or the first voicegate.{json,toml,yaml,yml}
// found in the working directory and then ~/.voicegate when path is empty.
// A .env file in the working directory is loaded into the environment first;
// variables already set win over it.
func Load(path string) (*LoadResult, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		L_warn("config: failed to load .env", "error", err)
	}

	if path == "" {
		found, err := paths.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := &Config{}
	if path != "" {
		// #nosec G304 - operator-supplied config path
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, formatOf(path), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		L_debug("config: loaded file", "path", path)
	} else {
		L_debug("config: no config file found, using defaults")
	}

	// WithoutDereference keeps an explicit false behind a *bool
	if err := mergo.Merge(cfg, Defaults(), mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

// formatOf maps a file extension to "json", "toml" or "yaml".
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Decode parses data in the given format into cfg. TOML and YAML are
// normalized through JSON so the json tags stay the single source of key names.
func Decode(data []byte, format string, cfg *Config) error {
	if format == "json" {
		return json.Unmarshal(data, cfg)
	}

	var raw map[string]interface{}
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown config format %q", format)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", format, err)
	}
	return json.Unmarshal(normalized, cfg)
}

// Encode renders cfg in the given format.
func Encode(cfg *Config, format string) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return append(data, '\n'), nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
			return nil, err
		}
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(raw); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	return buf.Bytes(), nil
}

// applyEnv copies secrets and overrides from the environment.
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.LLM.Gemini.APIKey, EnvGeminiKey)
	set(&cfg.LLM.OpenAI.APIKey, EnvOpenAIKey)
	set(&cfg.STT.OpenAI.APIKey, EnvOpenAIKey)
	set(&cfg.TTS.OpenAI.APIKey, EnvOpenAIKey)
	set(&cfg.STT.Groq.APIKey, EnvGroqKey)
	set(&cfg.STT.Google.APIKey, EnvGoogleKey)
	set(&cfg.HTTP.Listen, EnvListen)
	set(&cfg.Logging.Level, EnvLogLevel)
}
