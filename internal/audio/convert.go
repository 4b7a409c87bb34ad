package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// Detect sniffs the container format of data.
func Detect(data []byte) *mimetype.MIME {
	return mimetype.Detect(data)
}

// matches reports whether m or one of its parents is any of the given types.
func matches(m *mimetype.MIME, types ...string) bool {
	for ; m != nil; m = m.Parent() {
		for _, t := range types {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}

// Decode turns a compressed or containerized audio payload into a Clip.
// WAV, MP3 and OGG/Opus are decoded in Go; anything else needs ffmpeg.
func Decode(ctx context.Context, data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data")
	}

	mt := Detect(data)
	L_trace("audio: detected format", "mime", mt.String(), "bytes", len(data))

	switch {
	case matches(mt, "audio/wav"):
		return DecodeWAV(data)
	case matches(mt, "audio/mpeg"):
		return DecodeMP3(data)
	case matches(mt, "audio/ogg", "application/ogg"):
		// pion/opus is unreliable; prefer ffmpeg when present
		if FFmpegAvailable() {
			return decodeWithFFmpeg(ctx, data)
		}
		clip, err := decodeOggOpusSafe(data)
		if err != nil {
			return nil, fmt.Errorf("OGG decoding failed (%v) - install ffmpeg for reliable audio conversion", err)
		}
		return clip, nil
	}

	if FFmpegAvailable() {
		L_debug("audio: using ffmpeg for format", "mime", mt.String())
		return decodeWithFFmpeg(ctx, data)
	}
	return nil, fmt.Errorf("unsupported audio format %s (install ffmpeg for other formats)", mt.String())
}

// ToPCM16Mono16k transcodes any supported audio payload into canonical raw PCM:
// decode, force mono, resample to 16 kHz, encode a WAV in memory, drop its header.
func ToPCM16Mono16k(ctx context.Context, data []byte) ([]byte, error) {
	clip, err := Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	norm := clip.Normalize()
	wavData, err := EncodeWAV(norm.Samples, norm.SampleRate, norm.Channels)
	if err != nil {
		return nil, err
	}
	return StripWAVHeader(wavData)
}

// LoadFloat32 reads an audio file and returns 16 kHz mono float32 samples,
// the input format whisper.cpp expects.
func LoadFloat32(ctx context.Context, filePath string) ([]float32, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	clip, err := Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	norm := clip.Normalize()
	L_debug("audio: conversion complete", "samples", len(norm.Samples), "duration_sec", norm.Duration())
	return Int16ToFloat32(norm.Samples), nil
}
