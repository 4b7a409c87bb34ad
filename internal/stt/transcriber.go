package stt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/roelfdiedericks/voicegate/internal/audio"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/paths"
)

// Transcriber is the speech-to-text stage: raw PCM in, transcript out.
type Transcriber struct {
	provider   Provider
	scratchDir string
}

// NewTranscriber wraps provider. Scratch WAV files go to scratchDir, or the
// system temp dir when it is empty.
func NewTranscriber(provider Provider, scratchDir string) (*Transcriber, error) {
	if provider == nil {
		return nil, fmt.Errorf("stt: provider is nil")
	}
	dir, err := paths.ResolveDir(scratchDir, os.TempDir())
	if err != nil {
		return nil, fmt.Errorf("stt: scratch dir: %w", err)
	}
	return &Transcriber{provider: provider, scratchDir: dir}, nil
}

// Provider returns the wrapped provider.
func (t *Transcriber) Provider() Provider {
	return t.provider
}

// Transcribe wraps pcm (16 kHz mono 16-bit) in a WAV scratch file unique to
// this call, runs recognition on it and removes the file on every path.
// An empty result is reported as ErrEmptyTranscript.
func (t *Transcriber) Transcribe(ctx context.Context, requestID string, pcm []byte) (string, error) {
	if len(pcm)%audio.SampleWidth != 0 {
		return "", fmt.Errorf("pcm length %d is not a whole number of 16-bit samples", len(pcm))
	}

	scratch := filepath.Join(t.scratchDir, fmt.Sprintf("stt-%s-%s.wav", requestID, uuid.NewString()))
	if err := audio.WriteWAVFile(scratch, pcm); err != nil {
		os.Remove(scratch)
		return "", fmt.Errorf("write scratch wav: %w", err)
	}
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			L_warn("stt: failed to remove scratch file", "request", requestID, "file", scratch, "error", err)
		}
	}()

	start := time.Now()
	text, err := t.provider.Transcribe(ctx, scratch)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.provider.Name(), err)
	}
	if text == "" {
		return "", ErrEmptyTranscript
	}

	L_elapsed(start, "stt: transcribed", "request", requestID, "provider", t.provider.Name(), "chars", len(text))
	return text, nil
}
