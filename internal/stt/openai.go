package stt

import (
	"context"
	"fmt"
	"net/http"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements STT against an OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI itself, or Groq).
type OpenAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAIProvider creates a transcription client. name is reported by Name.
func NewOpenAIProvider(name string, cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key not configured", name)
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &OpenAIProvider{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Transcribe uploads the WAV file and returns the recognized text.
func (o *OpenAIProvider) Transcribe(ctx context.Context, wavPath string) (string, error) {
	L_debug("stt: transcribing via API", "provider", o.name, "model", o.model, "file", wavPath)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: wavPath,
		Language: "en",
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", o.name, err)
	}

	result := JoinSegments([]string{resp.Text})
	L_debug("stt: API transcription complete", "provider", o.name, "length", len(result))
	return result, nil
}

// Name returns the provider name.
func (o *OpenAIProvider) Name() string {
	return o.name
}

// Close releases any resources (none for HTTP client).
func (o *OpenAIProvider) Close() error {
	return nil
}
