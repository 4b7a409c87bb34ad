package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roelfdiedericks/voicegate/internal/audio"
)

type fakeProvider struct {
	text   string
	err    error
	seen   string
	header *audio.WAVHeader
}

func (f *fakeProvider) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f.seen = wavPath
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", err
	}
	if f.header, err = audio.ParseWAVHeader(data); err != nil {
		return "", err
	}
	return f.text, f.err
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{" hello "}, "hello"},
		{"ordered", []string{" Hello", " world. ", "How are you?"}, "Hello world. How are you?"},
		{"skips blanks", []string{"a", "  ", "", "b"}, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinSegments(tt.in); got != tt.want {
				t.Errorf("JoinSegments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranscriberWritesAndRemovesScratch(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeProvider{text: "hello there"}
	tr, err := NewTranscriber(fake, dir)
	if err != nil {
		t.Fatalf("NewTranscriber: %v", err)
	}

	pcm := make([]byte, 3200)
	got, err := tr.Transcribe(context.Background(), "req1", pcm)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello there" {
		t.Errorf("transcript = %q", got)
	}

	if !strings.HasPrefix(filepath.Base(fake.seen), "stt-req1-") || filepath.Dir(fake.seen) != dir {
		t.Errorf("unexpected scratch path %s", fake.seen)
	}
	if fake.header.SampleRate != audio.SampleRate || fake.header.NumChannels != 1 || fake.header.BitsPerSample != 16 {
		t.Errorf("scratch header = %+v", fake.header)
	}
	if _, err := os.Stat(fake.seen); !os.IsNotExist(err) {
		t.Errorf("scratch file still present: %v", err)
	}
}

func TestTranscriberFailures(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeProvider
		pcm     []byte
		wantErr error
	}{
		{"odd length", &fakeProvider{text: "x"}, []byte{1, 2, 3}, nil},
		{"provider error", &fakeProvider{err: errors.New("boom")}, make([]byte, 320), nil},
		{"empty transcript", &fakeProvider{}, make([]byte, 320), ErrEmptyTranscript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tr, err := NewTranscriber(tt.fake, dir)
			if err != nil {
				t.Fatalf("NewTranscriber: %v", err)
			}
			got, err := tr.Transcribe(context.Background(), "req", tt.pcm)
			if err == nil {
				t.Fatal("expected error")
			}
			if got != "" {
				t.Errorf("transcript = %q, want empty", got)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("scratch dir not empty: %d entries", len(entries))
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "vosk" }, true},
		{"openai without key", func(c *Config) { c.Provider = "openai" }, true},
		{"openai with key", func(c *Config) { c.Provider = "openai"; c.OpenAI.APIKey = "k" }, false},
		{"groq without key", func(c *Config) { c.Provider = "groq" }, true},
		{"google adc", func(c *Config) { c.Provider = "google" }, false},
		{"negative beam", func(c *Config) { c.WhisperCpp.BeamSize = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelCatalog(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ggml-tiny.en.bin"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if GetModel("ggml-base.en.bin") == nil {
		t.Error("default model missing from catalog")
	}
	if GetModel("nope.bin") != nil {
		t.Error("unexpected model")
	}

	for _, m := range WhisperModels {
		if !strings.HasSuffix(m.URL, "/"+m.Name) || !strings.HasPrefix(m.URL, "https://") {
			t.Errorf("%s url = %q", m.Name, m.URL)
		}
		if !strings.Contains(m.Name, ".en") {
			t.Errorf("%s is not an English model", m.Name)
		}
	}

	for _, m := range ListModels(dir) {
		if want := m.Name == "ggml-tiny.en.bin"; m.Downloaded != want {
			t.Errorf("%s downloaded = %v, want %v", m.Name, m.Downloaded, want)
		}
	}
}

func TestNewProviderMissingModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WhisperCpp.ModelsDir = t.TempDir()
	if _, err := NewProvider(cfg); err == nil {
		t.Error("expected error for missing model file")
	}
}
