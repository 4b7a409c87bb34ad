package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	opts   Options
	client *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}


type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a client. Empty options fall back to the defaults.
func NewGeminiClient(opts Options) *GeminiClient {
	opts = opts.withDefaults(DefaultGeminiModel)
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeminiBaseURL
	}
	return &GeminiClient{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Name returns the provider name.
func (g *GeminiClient) Name() string { return "gemini" }

// endpoint builds {base}/{model}:generateContent?key={apiKey}.
func (g *GeminiClient) endpoint() string {
	base := strings.TrimRight(g.opts.BaseURL, "/")
	return fmt.Sprintf("%s/%s:generateContent?key=%s", base, g.opts.Model, url.QueryEscape(g.opts.APIKey))
}

// Complete sends prompt with the persona as system instruction and returns
// the first text part of the first candidate. See replyText for how
// missing and null fields are treated.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: g.opts.SystemPrompt}}},
		GenerationConfig:  geminiGenerationConfig{Temperature: g.opts.Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	L_trace("llm: gemini request", "model", g.opts.Model, "promptLen", len(prompt))
	start := time.Now()

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, readGeminiErrMsg(data))
	}

	if !json.Valid(data) {
		return "", fmt.Errorf("parse response: %w: invalid JSON", ErrMalformedResponse)
	}
	text, finish, err := replyText(data)
	if err != nil {
		return "", err
	}
	L_elapsed(start, "llm: gemini response", "model", g.opts.Model, "finish", finish)
	return text, nil
}

// replyText walks candidates[0].content.parts[0].text. A key that is absent
// takes its default: no candidates means one empty candidate, no content an
// empty object, no parts one empty part, no text "". A key that is present
// but null, an empty list or the wrong type is an error, so the caller
// falls back as it would for a failed call.
func replyText(data []byte) (text, finish string, err error) {
	candidates, err := member(data, "response", "candidates", `[{}]`)
	if err != nil {
		return "", "", err
	}
	candidate, err := first(candidates, "candidates")
	if err != nil {
		return "", "", err
	}

	var meta struct {
		FinishReason string `json:"finishReason"`
	}
	_ = json.Unmarshal(candidate, &meta)

	content, err := member(candidate, "candidate", "content", `{}`)
	if err != nil {
		return "", meta.FinishReason, err
	}
	parts, err := member(content, "content", "parts", `[{}]`)
	if err != nil {
		return "", meta.FinishReason, err
	}
	part, err := first(parts, "parts")
	if err != nil {
		return "", meta.FinishReason, err
	}
	raw, err := member(part, "part", "text", `""`)
	if err != nil {
		return "", meta.FinishReason, err
	}

	if isNull(raw) {
		return "", meta.FinishReason, fmt.Errorf("%w: text is null", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", meta.FinishReason, fmt.Errorf("%w: text is not a string", ErrMalformedResponse)
	}
	return text, meta.FinishReason, nil
}

// member returns obj[key], or def when the key is absent.
func member(obj json.RawMessage, what, key, def string) (json.RawMessage, error) {
	if isNull(obj) {
		return nil, fmt.Errorf("%w: %s is null", ErrMalformedResponse, what)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedResponse, what)
	}
	v, ok := fields[key]
	if !ok {
		return json.RawMessage(def), nil
	}
	return v, nil
}

// first returns the first element of a JSON array.
func first(arr json.RawMessage, what string) (json.RawMessage, error) {
	if isNull(arr) {
		return nil, fmt.Errorf("%w: %s is null", ErrMalformedResponse, what)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedResponse, what)
	}
	if len(items) == 0 {
		if what == "candidates" {
			return nil, ErrNoCandidates
		}
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedResponse, what)
	}
	return items[0], nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func readGeminiErrMsg(data []byte) string {
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
	}
	return strings.TrimSpace(string(data))
}
