package stt

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/roelfdiedericks/voicegate/internal/audio"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// DefaultBeamSize is the beam search width used for decoding.
const DefaultBeamSize = 5

// WhisperCppProvider implements STT using whisper.cpp.
type WhisperCppProvider struct {
	model  whisper.Model
	config WhisperCppConfig

	// A loaded model carries one decoder state; inference runs one at a time.
	mu sync.Mutex
}

// WhisperCppConfig holds configuration for Whisper.cpp.
type WhisperCppConfig struct {
	ModelsDir string `json:"modelsDir"` // Directory containing whisper models
	Model     string `json:"model"`     // Model name (e.g., "ggml-base.en.bin")
	Language  string `json:"language"`  // Language code (e.g., "en", "auto" for detection)
	Threads   uint   `json:"threads"`   // Number of threads (0 = auto)
	BeamSize  int    `json:"beamSize"`  // Beam search width (0 = DefaultBeamSize)
}

// NewWhisperCppProvider loads the model once; the handle is shared by all requests.
func NewWhisperCppProvider(cfg WhisperCppConfig) (*WhisperCppProvider, error) {
	if cfg.ModelsDir == "" {
		return nil, fmt.Errorf("whisper.cpp modelsDir not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("whisper.cpp model not configured")
	}
	if cfg.BeamSize <= 0 {
		cfg.BeamSize = DefaultBeamSize
	}

	modelPath := filepath.Join(cfg.ModelsDir, cfg.Model)
	L_info("stt: loading whisper.cpp model", "path", modelPath)
	start := time.Now()

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}

	L_elapsed(start, "stt: whisper.cpp model loaded", "multilingual", model.IsMultilingual())

	return &WhisperCppProvider{
		model:  model,
		config: cfg,
	}, nil
}

// Transcribe converts a WAV file to text using Whisper.cpp.
func (w *WhisperCppProvider) Transcribe(ctx context.Context, wavPath string) (string, error) {
	L_debug("stt: whisper.cpp transcribing", "file", wavPath)

	// whisper.cpp wants 16kHz mono float32
	samples, err := audio.LoadFloat32(ctx, wavPath)
	if err != nil {
		return "", fmt.Errorf("convert audio: %w", err)
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples in %s", wavPath)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	switch w.config.Language {
	case "":
	case "auto":
		if err := wctx.SetLanguage("auto"); err != nil {
			L_debug("stt: auto language detection not supported for this model")
		}
	default:
		if err := wctx.SetLanguage(w.config.Language); err != nil {
			L_warn("stt: failed to set language", "language", w.config.Language, "error", err)
		}
	}

	if w.config.Threads > 0 {
		wctx.SetThreads(w.config.Threads)
	}
	wctx.SetBeamSize(w.config.BeamSize)

	start := time.Now()
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var segments []string
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("get segment: %w", err)
		}
		segments = append(segments, segment.Text)
	}

	result := JoinSegments(segments)
	L_elapsed(start, "stt: whisper.cpp transcription complete", "segments", len(segments), "length", len(result))

	return result, nil
}

// Name returns the provider name.
func (w *WhisperCppProvider) Name() string {
	return "whispercpp"
}

// Close releases the whisper model.
func (w *WhisperCppProvider) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	L_debug("stt: closing whisper.cpp model")
	return w.model.Close()
}
