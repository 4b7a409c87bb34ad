// Package stt turns recorded speech into text.
package stt

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyTranscript is returned when recognition succeeds but yields no text.
var ErrEmptyTranscript = errors.New("empty transcript")

// Provider is the interface for STT implementations.
type Provider interface {
	// Transcribe converts a 16 kHz mono 16-bit WAV file to text.
	Transcribe(ctx context.Context, wavPath string) (string, error)

	// Name returns the provider name (e.g., "whispercpp", "openai")
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// JoinSegments trims each recognized segment, drops empty ones and joins
// the rest with single spaces in the order given. A blank segment between
// two others leaves one space, not two.
func JoinSegments(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
