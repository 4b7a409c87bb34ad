package llm

import (
	"context"
	"strings"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// Fixed replies used when the model cannot provide one.
const (
	FallbackUnreachable = "There was an issue reaching Gemini. Try again later."
	FallbackEmpty       = "I couldn't generate a response."
)

// Reply is the outcome of one completion.
type Reply struct {
	Text     string
	Fallback bool
	Reason   ErrorType // set when Fallback is true
}

// Responder is the completion stage. It never fails: errors and empty
// answers turn into fixed fallback text.
type Responder struct {
	completer Completer
	prefix    string
}

// NewResponder wraps completer; prefix is prepended to every transcript.
func NewResponder(completer Completer, prefix string) *Responder {
	return &Responder{completer: completer, prefix: prefix}
}

// Completer returns the wrapped completer.
func (r *Responder) Completer() Completer {
	return r.completer
}

// Reply returns the assistant's answer to transcript.
func (r *Responder) Reply(ctx context.Context, transcript string) string {
	return r.Respond(ctx, transcript).Text
}

// Respond is Reply with the fallback details kept.
func (r *Responder) Respond(ctx context.Context, transcript string) Reply {
	start := time.Now()
	text, err := r.completer.Complete(ctx, r.prefix+transcript)
	if err != nil {
		reason := ClassifyError(err)
		L_error("llm: completion failed", "provider", r.completer.Name(), "reason", reason, "error", err)
		return Reply{Text: FallbackUnreachable, Fallback: true, Reason: reason}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		L_warn("llm: empty completion", "provider", r.completer.Name())
		return Reply{Text: FallbackEmpty, Fallback: true, Reason: ErrorTypeEmpty}
	}

	L_elapsed(start, "llm: reply ready", "provider", r.completer.Name(), "chars", len(text))
	return Reply{Text: text}
}
