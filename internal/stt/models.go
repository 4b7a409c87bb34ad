package stt

import (
	"os"
	"path/filepath"
)

// DefaultModelsDir is where models are looked up and downloaded to.
const DefaultModelsDir = "~/.voicegate/models"

// WhisperModel is a downloadable whisper.cpp model.
type WhisperModel struct {
	Name      string // file name, also the config value
	Label     string
	Size      string
	SizeBytes int64 // for progress logging
	URL       string
}

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// WhisperModels lists the English-only models suited to short spoken
// queries. base.en is the default; the quantized variant trades a little
// accuracy for a third of the memory.
var WhisperModels = []WhisperModel{
	{Name: "ggml-tiny.en.bin", Label: "Tiny English", Size: "75 MB", SizeBytes: 77_704_715},
	{Name: "ggml-base.en.bin", Label: "Base English (default)", Size: "142 MB", SizeBytes: 147_964_211},
	{Name: "ggml-base.en-q5_1.bin", Label: "Base English, q5_1", Size: "57 MB", SizeBytes: 59_721_011},
	{Name: "ggml-small.en.bin", Label: "Small English", Size: "466 MB", SizeBytes: 487_614_201},
}

func init() {
	for i := range WhisperModels {
		WhisperModels[i].URL = modelBaseURL + WhisperModels[i].Name
	}
}

// GetModel returns the model with the given name, or nil if not found.
func GetModel(name string) *WhisperModel {
	for i := range WhisperModels {
		if WhisperModels[i].Name == name {
			return &WhisperModels[i]
		}
	}
	return nil
}

// IsModelDownloaded checks if a model file exists in the given directory.
func IsModelDownloaded(modelsDir, name string) bool {
	if modelsDir == "" || name == "" {
		return false
	}
	path := filepath.Join(modelsDir, name)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// ModelStatus pairs a catalog entry with whether it is present on disk.
type ModelStatus struct {
	WhisperModel
	Downloaded bool
}

// ListModels reports every catalog model and its download state in modelsDir.
func ListModels(modelsDir string) []ModelStatus {
	out := make([]ModelStatus, 0, len(WhisperModels))
	for _, m := range WhisperModels {
		out = append(out, ModelStatus{WhisperModel: m, Downloaded: IsModelDownloaded(modelsDir, m.Name)})
	}
	return out
}
