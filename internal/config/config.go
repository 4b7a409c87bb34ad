// Package config loads voicegate settings from a JSON, TOML or YAML file,
// fills gaps from defaults and lets the environment supply secrets.
package config

import (
	"fmt"

	httpserver "github.com/roelfdiedericks/voicegate/internal/http"
	"github.com/roelfdiedericks/voicegate/internal/llm"
	"github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/pipeline"
	"github.com/roelfdiedericks/voicegate/internal/stt"
	"github.com/roelfdiedericks/voicegate/internal/tts"
)

// Config represents the merged voicegate configuration
type Config struct {
	HTTP     httpserver.Config `json:"http"`
	STT      stt.Config        `json:"stt"`
	LLM      llm.Config        `json:"llm"`
	TTS      tts.Config        `json:"tts"`
	Pipeline pipeline.Config   `json:"pipeline"`
	Logging  LoggingConfig     `json:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level"`  // trace, debug, info, warn, error
	Format string `json:"format"` // text, json, logfmt
	Caller bool   `json:"caller"` // include file:line
}

// Defaults returns the complete default configuration.
func Defaults() *Config {
	return &Config{
		HTTP:     httpserver.DefaultConfig(),
		STT:      stt.DefaultConfig(),
		LLM:      llm.DefaultConfig(),
		TTS:      tts.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Validate checks every section and reports the first problem.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"http", c.HTTP.Validate},
		{"stt", c.STT.Validate},
		{"llm", c.LLM.Validate},
		{"tts", c.TTS.Validate},
		{"pipeline", c.Pipeline.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("config %s: %w", chk.section, err)
		}
	}
	return nil
}

// Validate checks the level and format names.
func (l LoggingConfig) Validate() error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Format {
	case "", "text", "json", "logfmt":
		return nil
	}
	return fmt.Errorf("unknown log format %q", l.Format)
}

// ToLogConfig converts to the logging package's settings.
func (l LoggingConfig) ToLogConfig() (*logging.LogConfig, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	cfg := logging.DefaultLogConfig()
	cfg.Level = level
	if l.Format != "" {
		cfg.Format = l.Format
	}
	cfg.ShowCaller = l.Caller
	return cfg, nil
}
