package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/paths"
)

// DownloadModel downloads a whisper model to destDir.
// Progress is logged via L_info. The file only appears under its final
// name once fully written.
func DownloadModel(ctx context.Context, model *WhisperModel, destDir string) error {
	if model == nil {
		return fmt.Errorf("model is nil")
	}

	expandedDir, err := paths.ExpandTilde(destDir)
	if err != nil {
		return fmt.Errorf("expand path: %w", err)
	}
	if err := paths.EnsureDir(expandedDir); err != nil {
		return fmt.Errorf("create models directory: %w", err)
	}

	destPath := filepath.Join(expandedDir, model.Name)
	tempPath := destPath + ".download"

	L_info("stt: downloading model", "model", model.Name, "size", model.Size, "url", model.URL)

	req, err := http.NewRequestWithContext(ctx, "GET", model.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	totalSize := resp.ContentLength
	if totalSize <= 0 {
		totalSize = model.SizeBytes
	}

	// #nosec G304 - path built from the models dir and a catalog name
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	pw := &progressWriter{name: model.Name, total: totalSize, last: time.Now()}
	if _, err := io.Copy(io.MultiWriter(tempFile, pw), resp.Body); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("download %s: %w", model.Name, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename file: %w", err)
	}

	L_info("stt: download complete", "model", model.Name, "path", destPath, "bytes", pw.done)
	return nil
}

// EnsureModel downloads name into modelsDir unless it is already there.
func EnsureModel(ctx context.Context, modelsDir, name string) error {
	model := GetModel(name)
	if model == nil {
		return fmt.Errorf("model not in catalog: %s", name)
	}
	expandedDir, err := paths.ExpandTilde(modelsDir)
	if err != nil {
		return fmt.Errorf("invalid models directory %s: %w", modelsDir, err)
	}
	if IsModelDownloaded(expandedDir, model.Name) {
		L_info("stt: model already downloaded", "model", model.Name)
		return nil
	}
	return DownloadModel(ctx, model, expandedDir)
}

// progressWriter logs download progress every 2 seconds.
type progressWriter struct {
	name  string
	total int64
	done  int64
	last  time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if time.Since(p.last) > 2*time.Second {
		percent := int(float64(p.done) / float64(p.total) * 100)
		L_info("stt: downloading", "model", p.name,
			"progress", fmt.Sprintf("%d%%", percent),
			"downloaded", fmt.Sprintf("%d/%d MB", p.done/(1024*1024), p.total/(1024*1024)))
		p.last = time.Now()
	}
	return len(b), nil
}
