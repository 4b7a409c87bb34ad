package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/roelfdiedericks/voicegate/internal/audio"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// Speaker is the text-to-speech stage: reply text in, canonical PCM out.
type Speaker struct {
	synth Synthesizer
	lang  string
	debug *DebugSink // nil = no debug copies
}

// NewSpeaker wraps synth. debug may be nil.
func NewSpeaker(synth Synthesizer, lang string, debug *DebugSink) *Speaker {
	if lang == "" {
		lang = DefaultLanguage
	}
	return &Speaker{synth: synth, lang: lang, debug: debug}
}

// Synthesizer returns the wrapped synthesizer.
func (s *Speaker) Synthesizer() Synthesizer {
	return s.synth
}

// Speak cleans reply, synthesizes it and transcodes the result to 16 kHz
// mono 16-bit PCM without a header.
func (s *Speaker) Speak(ctx context.Context, requestID, reply string) ([]byte, error) {
	text := CleanForSpeech(reply)
	if text == "" {
		return nil, ErrNothingToSay
	}

	start := time.Now()
	encoded, err := s.synth.Synthesize(ctx, text, s.lang)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.synth.Name(), err)
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%s: no audio returned", s.synth.Name())
	}
	L_elapsed(start, "tts: synthesized", "request", requestID, "provider", s.synth.Name(), "bytes", len(encoded))

	if s.debug != nil {
		if path, err := s.debug.Save(requestID, encoded); err != nil {
			L_warn("tts: failed to save debug audio", "request", requestID, "error", err)
		} else {
			L_debug("tts: debug audio saved", "request", requestID, "path", path)
		}
	}

	pcm, err := audio.ToPCM16Mono16k(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("transcode produced no audio")
	}

	L_debug("tts: generated PCM", "request", requestID, "bytes", len(pcm))
	return pcm, nil
}
