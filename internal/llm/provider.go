// Package llm produces the assistant's reply to a transcript.
package llm

import (
	"context"
	"errors"
)

// ErrNoCandidates is returned when the model answers without any candidate.
var ErrNoCandidates = errors.New("no candidates in response")

// ErrMalformedResponse is returned when a response field holds null, an
// empty list or the wrong JSON type where the reply text should be.
var ErrMalformedResponse = errors.New("malformed response")

// Completer sends a single prompt to a language model and returns the text
// of its answer. The persona and sampling settings belong to the completer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}
