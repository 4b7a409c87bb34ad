package main

import (
	"fmt"

	"github.com/roelfdiedericks/voicegate/internal/config"
	httpserver "github.com/roelfdiedericks/voicegate/internal/http"
	"github.com/roelfdiedericks/voicegate/internal/llm"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/metrics"
	"github.com/roelfdiedericks/voicegate/internal/pipeline"
	"github.com/roelfdiedericks/voicegate/internal/stt"
	"github.com/roelfdiedericks/voicegate/internal/tts"
)

// app holds the long-lived stage components. The STT provider is built
// once here and shared by every request.
type app struct {
	transcriber *stt.Transcriber
	responder   *llm.Responder
	speaker     *tts.Speaker
	metrics     *metrics.Metrics
	pipeline    *pipeline.Pipeline
}

func newApp(cfg *config.Config) (*app, error) {
	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		return nil, err
	}

	responder, err := buildResponder(cfg)
	if err != nil {
		transcriber.Provider().Close()
		return nil, err
	}

	speaker, err := buildSpeaker(cfg)
	if err != nil {
		transcriber.Provider().Close()
		return nil, err
	}

	m := metrics.New()
	p, err := pipeline.New(transcriber, responder, speaker, cfg.Pipeline, m)
	if err != nil {
		transcriber.Provider().Close()
		return nil, err
	}

	return &app{
		transcriber: transcriber,
		responder:   responder,
		speaker:     speaker,
		metrics:     m,
		pipeline:    p,
	}, nil
}

func (a *app) providers() httpserver.Providers {
	return httpserver.Providers{
		STT: a.transcriber.Provider().Name(),
		LLM: a.responder.Completer().Name(),
		TTS: a.speaker.Synthesizer().Name(),
	}
}

func (a *app) Close() {
	if err := a.transcriber.Provider().Close(); err != nil {
		L_warn("stt: close failed", "error", err)
	}
}

func buildTranscriber(cfg *config.Config) (*stt.Transcriber, error) {
	provider, err := stt.NewProvider(cfg.STT)
	if err != nil {
		return nil, err
	}
	t, err := stt.NewTranscriber(provider, cfg.STT.ScratchDir)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("stt: %w", err)
	}
	return t, nil
}

func buildResponder(cfg *config.Config) (*llm.Responder, error) {
	completer, err := llm.NewCompleter(cfg.LLM)
	if err != nil {
		return nil, err
	}
	L_info("llm: completer ready", "provider", completer.Name())
	return llm.NewResponder(completer, cfg.LLM.PromptPrefix), nil
}

func buildSpeaker(cfg *config.Config) (*tts.Speaker, error) {
	synth, err := tts.NewSynthesizer(cfg.TTS)
	if err != nil {
		return nil, err
	}

	var sink *tts.DebugSink
	if cfg.TTS.Debug.IsEnabled() {
		sink, err = tts.NewDebugSink(cfg.TTS.Debug)
		if err != nil {
			return nil, err
		}
		L_debug("tts: debug copies enabled", "dir", sink.Dir())
	}

	L_info("tts: synthesizer ready", "provider", synth.Name())
	return tts.NewSpeaker(synth, cfg.TTS.Language, sink), nil
}
