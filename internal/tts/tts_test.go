package tts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/roelfdiedericks/voicegate/internal/audio"
	"pgregory.net/rapid"
)

func TestCleanForSpeech(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello **world** [laughs]   there", "Hello world there"},
		{"# Heading\n\n* item one\n* item two", "Heading item one item two"},
		{"[pause] [smiles]", ""},
		{"plain text", "plain text"},
		{"  spaced\t\tout \n", "spaced out"},
		{"unclosed [bracket stays", "unclosed [bracket stays"},
		{"split [stage\ndirection] here", "split here"},
		{"a\u00a0\u00a0b", "a b"},
		{"a\v\vb", "a b"},
		{"a \u2003 b", "a b"},
		{"\u3000hello\u2028world\x1c", "hello world"},
		{"line\u0085next\u202fend", "line next end"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanForSpeech(tt.in); got != tt.want {
			t.Errorf("CleanForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanForSpeechIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.StringOfN(rapid.SampledFrom([]rune("ab *#[] \t\n\v\u00a0\u2003\u3000\u0085\x1fxyz.")), 0, 80, -1).Draw(t, "in")
		once := CleanForSpeech(in)
		if twice := CleanForSpeech(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
		if strings.ContainsAny(once, "*#") {
			t.Fatalf("markup left in %q", once)
		}
		if strings.Contains(once, "  ") {
			t.Fatalf("whitespace run left in %q", once)
		}
		for _, r := range once {
			if r != ' ' && unicode.IsSpace(r) {
				t.Fatalf("uncollapsed space %U in %q", r, once)
			}
		}
	})
}

func TestSplitChunks(t *testing.T) {
	long := strings.Repeat("word ", 60)
	chunks := splitChunks(long, maxChunkLen)
	if len(chunks) < 3 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if strings.Join(chunks, " ") != strings.TrimSpace(long) {
		t.Error("chunks do not reassemble the text")
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > maxChunkLen {
			t.Errorf("chunk %d has %d runes", i, utf8.RuneCountInString(c))
		}
	}

	giant := strings.Repeat("x", 250)
	chunks = splitChunks("hi "+giant, maxChunkLen)
	want := []int{2, 100, 100, 50}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %d, want %d", len(chunks), len(want))
	}
	for i, n := range want {
		if len(chunks[i]) != n {
			t.Errorf("chunk %d len = %d, want %d", i, len(chunks[i]), n)
		}
	}

	if splitChunks("   ", maxChunkLen) != nil {
		t.Error("expected no chunks for blank text")
	}
}

var fakeMP3 = append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...)

func TestGTTSSynthesize(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		q := r.URL.Query()
		if q.Get("client") != "tw-ob" || q.Get("tl") != "en" || q.Get("ie") != "UTF-8" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	g := NewGTTS(srv.URL, time.Second)
	text := strings.Repeat("hello there ", 15)
	data, err := g.Synthesize(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	n := len(splitChunks(text, maxChunkLen))
	if len(queries) != n {
		t.Errorf("requests = %d, want %d", len(queries), n)
	}
	if len(data) != n*len(fakeMP3) {
		t.Errorf("bytes = %d, want %d", len(data), n*len(fakeMP3))
	}
}

func TestGTTSErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   []byte
	}{
		{"forbidden", http.StatusForbidden, fakeMP3},
		{"html page", http.StatusOK, []byte("<html><body>captcha</body></html>")},
		{"empty", http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(tt.body)
			}))
			defer srv.Close()

			if _, err := NewGTTS(srv.URL, time.Second).Synthesize(context.Background(), "hi", "en"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type fakeSynth struct {
	data  []byte
	err   error
	calls int
	text  string
}

func (f *fakeSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	f.calls++
	f.text = text
	return f.data, f.err
}

func (f *fakeSynth) Name() string { return "fake" }

// wavTone returns a WAV file of a 440 Hz tone at the given layout.
func wavTone(t *testing.T, rate, channels int, seconds float64) []byte {
	t.Helper()
	frames := int(float64(rate) * seconds)
	samples := make([]int16, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(6000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := 0; c < channels; c++ {
			samples = append(samples, v)
		}
	}
	data, err := audio.EncodeWAV(samples, rate, channels)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return data
}

func TestSpeakerSpeak(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDebugSink(DebugConfig{Dir: dir})
	if err != nil {
		t.Fatalf("NewDebugSink: %v", err)
	}
	synth := &fakeSynth{data: wavTone(t, 24000, 2, 0.5)}
	s := NewSpeaker(synth, "en", sink)

	pcm, err := s.Speak(context.Background(), "req1", "Hello **world** [laughs]   there")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if synth.text != "Hello world there" {
		t.Errorf("synthesized text = %q", synth.text)
	}
	if len(pcm)%audio.SampleWidth != 0 {
		t.Errorf("pcm length %d not whole samples", len(pcm))
	}
	if got, want := len(pcm)/audio.SampleWidth, audio.SampleRate/2; math.Abs(float64(got-want)) > float64(want)/50 {
		t.Errorf("samples = %d, want about %d", got, want)
	}

	debugPath := filepath.Join(dir, "response_audio.wav")
	saved, err := os.ReadFile(debugPath)
	if err != nil {
		t.Fatalf("debug copy: %v", err)
	}
	if len(saved) != len(synth.data) {
		t.Errorf("debug copy = %d bytes, want %d", len(saved), len(synth.data))
	}
}

// The default path: gTTS returns one ID3-tagged MPEG-2 file per chunk and
// Speak transcodes the concatenation.
func TestSpeakerGTTSMP3(t *testing.T) {
	mp3, err := os.ReadFile(filepath.Join("..", "audio", "testdata", "mpeg2-22k-mono.mp3"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(mp3)
	}))
	defer srv.Close()

	dir := t.TempDir()
	sink, err := NewDebugSink(DebugConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	s := NewSpeaker(NewGTTS(srv.URL, time.Second), "en", sink)

	reply := strings.Repeat("JECRC University offers engineering programs. ", 3)
	chunks := len(splitChunks(CleanForSpeech(reply), maxChunkLen))
	if chunks < 2 {
		t.Fatalf("reply should span several chunks, got %d", chunks)
	}

	pcm, err := s.Speak(context.Background(), "req-mp3", reply)
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(pcm)%audio.SampleWidth != 0 {
		t.Fatalf("pcm length %d not whole samples", len(pcm))
	}
	// 80 frames of 576 samples at 22050 Hz per chunk
	want := chunks * 80 * 576 * audio.SampleRate / 22050
	if got := len(pcm) / audio.SampleWidth; math.Abs(float64(got-want)) > float64(want)/50 {
		t.Errorf("samples = %d, want about %d", got, want)
	}

	saved, err := os.ReadFile(filepath.Join(dir, "response_audio.mp3"))
	if err != nil {
		t.Fatalf("debug copy: %v", err)
	}
	if len(saved) != chunks*len(mp3) {
		t.Errorf("debug copy = %d bytes, want %d", len(saved), chunks*len(mp3))
	}
}

func TestSpeakerFailures(t *testing.T) {
	tests := []struct {
		name      string
		synth     *fakeSynth
		reply     string
		wantErr   error
		wantCalls int
	}{
		{"nothing to say", &fakeSynth{}, "** [laughs] #", ErrNothingToSay, 0},
		{"synth error", &fakeSynth{err: errors.New("403")}, "hello", nil, 1},
		{"no audio", &fakeSynth{}, "hello", nil, 1},
		{"undecodable", &fakeSynth{data: []byte("definitely not audio")}, "hello", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpeaker(tt.synth, "", nil)
			pcm, err := s.Speak(context.Background(), "req", tt.reply)
			if err == nil {
				t.Fatal("expected error")
			}
			if pcm != nil {
				t.Errorf("pcm = %d bytes, want nil", len(pcm))
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.synth.calls != tt.wantCalls {
				t.Errorf("synth calls = %d, want %d", tt.synth.calls, tt.wantCalls)
			}
		})
	}
}

func TestSpeakerDebugFailureNotFatal(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDebugSink(DebugConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	// A directory squatting on the target name makes the rename fail.
	if err := os.Mkdir(filepath.Join(dir, "response_audio.wav"), 0750); err != nil {
		t.Fatal(err)
	}

	s := NewSpeaker(&fakeSynth{data: wavTone(t, 16000, 1, 0.1)}, "en", sink)
	if _, err := s.Speak(context.Background(), "req", "hello"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
}

func TestDebugSinkPerRequest(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDebugSink(DebugConfig{Dir: dir, PerRequest: true})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := sink.Save(fmt.Sprintf("r%d", i), fakeMP3); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(filepath.Join(dir, fmt.Sprintf("response_audio-r%d.mp3", i))); err != nil {
			t.Errorf("missing per-request copy: %v", err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults: %v", err)
	}
	if !cfg.Debug.IsEnabled() {
		t.Error("debug copies should default to on")
	}
	cfg.Provider = "espeak"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
	cfg = DefaultConfig()
	cfg.Provider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for openai without key")
	}
}
