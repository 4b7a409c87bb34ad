package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/voicegate/internal/audio"
)

func TestCommandTree(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{nil, "serve"},
		{[]string{"--listen", "127.0.0.1:9000"}, "serve"},
		{[]string{"version"}, "version"},
		{[]string{"models"}, "models list"},
		{[]string{"models", "download", "ggml-tiny.en.bin"}, "models download <name>"},
		{[]string{"say", "hello", "there", "-o", "x.pcm"}, "say <text>"},
		{[]string{"-c", "/tmp/v.toml", "config", "init", "--force"}, "config init"},
	}

	for _, tt := range tests {
		var cli CLI
		parser, err := kong.New(&cli, kong.Name("voicegate"), kong.Exit(func(int) { t.Fatalf("parser exited for %v", tt.args) }))
		if err != nil {
			t.Fatalf("kong.New: %v", err)
		}
		ctx, err := parser.Parse(tt.args)
		if err != nil {
			t.Errorf("Parse(%v): %v", tt.args, err)
			continue
		}
		if ctx.Command() != tt.command {
			t.Errorf("Parse(%v) command = %q, want %q", tt.args, ctx.Command(), tt.command)
		}
	}
}

func TestReadPCMPassesRawThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.pcm")
	raw := []byte{1, 0, 2, 0, 3, 0}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatal(err)
	}

	got, err := readPCM(context.Background(), path)
	if err != nil {
		t.Fatalf("readPCM: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("raw PCM changed: %v", got)
	}
}

func TestWriteThenReadWAV(t *testing.T) {
	dir := t.TempDir()
	pcm := audio.Int16ToPCM([]int16{0, 100, -100, 2000, -2000, 0, 50, -50})

	path := filepath.Join(dir, "out.wav")
	if err := writePCM(path, pcm); err != nil {
		t.Fatalf("writePCM: %v", err)
	}

	back, err := readPCM(context.Background(), path)
	if err != nil {
		t.Fatalf("readPCM: %v", err)
	}
	if string(back) != string(pcm) {
		t.Errorf("WAV round trip changed samples")
	}

	rawPath := filepath.Join(dir, "out.pcm")
	if err := writePCM(rawPath, pcm); err != nil {
		t.Fatalf("writePCM raw: %v", err)
	}
	data, err := os.ReadFile(rawPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(pcm) {
		t.Errorf("raw file has a header or was altered")
	}
}
