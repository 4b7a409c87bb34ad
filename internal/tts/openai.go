package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer implements speech synthesis with the OpenAI audio API.
type OpenAISynthesizer struct {
	model  string
	voice  string
	client *openai.Client
}

// NewOpenAISynthesizer creates a synthesizer returning MP3 audio.
func NewOpenAISynthesizer(cfg OpenAIConfig, timeout time.Duration) (*OpenAISynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAISynthesizer{model: model, voice: voice, client: openai.NewClientWithConfig(config)}, nil
}

// Name returns the provider name.
func (o *OpenAISynthesizer) Name() string { return "openai" }

// Synthesize returns MP3 speech. The voice decides the language, so lang is unused.
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return data, nil
}
