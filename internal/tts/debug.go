package tts

import (
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/roelfdiedericks/voicegate/internal/paths"
)

// DebugSink keeps a copy of the synthesized audio for inspection.
// Concurrent writers each replace the file atomically; the last one wins.
type DebugSink struct {
	dir        string
	perRequest bool
}

// NewDebugSink resolves and creates dir.
func NewDebugSink(cfg DebugConfig) (*DebugSink, error) {
	dir, err := paths.ResolveDir(cfg.Dir, DefaultDebugDir)
	if err != nil {
		return nil, fmt.Errorf("debug dir: %w", err)
	}
	return &DebugSink{dir: dir, perRequest: cfg.PerRequest}, nil
}

// Dir returns the resolved directory.
func (d *DebugSink) Dir() string {
	return d.dir
}

// Save writes data as response_audio.<ext>, or response_audio-<requestID>.<ext>
// when per-request copies are on. The extension follows the detected format.
func (d *DebugSink) Save(requestID string, data []byte) (string, error) {
	ext := mimetype.Detect(data).Extension()
	if ext == "" {
		ext = ".bin"
	}
	name := "response_audio" + ext
	if d.perRequest && requestID != "" {
		name = fmt.Sprintf("response_audio-%s%s", requestID, ext)
	}

	path := filepath.Join(d.dir, name)
	if err := paths.AtomicWrite(path, data, 0640); err != nil {
		return "", err
	}
	return path, nil
}
