package llm

import (
	"context"
	"fmt"
	"net/http"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient completes prompts against an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	opts   Options
	client *openai.Client
}

// NewOpenAIClient creates a chat completion client.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai API key not configured")
	}
	opts = opts.withDefaults(openai.GPT4oMini)

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &OpenAIClient{opts: opts, client: openai.NewClientWithConfig(config)}, nil
}

// Name returns the provider name.
func (o *OpenAIClient) Name() string { return "openai" }

// Complete sends the persona and prompt as a two-message chat.
func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.opts.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCandidates
	}

	L_debug("llm: openai response", "model", o.opts.Model, "finish", resp.Choices[0].FinishReason,
		"tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
