package pipeline

import (
	"fmt"
	"time"
)

// Config bounds each stage: how many runs may be inside it at once and
// how long one run may spend there, slot wait included.
type Config struct {
	STTSlots          int `json:"sttSlots"`
	LLMSlots          int `json:"llmSlots"`
	TTSSlots          int `json:"ttsSlots"`
	STTTimeoutSeconds int `json:"sttTimeoutSeconds"`
	LLMTimeoutSeconds int `json:"llmTimeoutSeconds"`
	TTSTimeoutSeconds int `json:"ttsTimeoutSeconds"`
}

// DefaultConfig returns the stage limits used when the config file leaves them out.
// Local inference is serialized anyway, so one STT slot avoids queueing
// scratch files behind the model lock.
func DefaultConfig() Config {
	return Config{
		STTSlots:          1,
		LLMSlots:          8,
		TTSSlots:          4,
		STTTimeoutSeconds: 60,
		LLMTimeoutSeconds: 25,
		TTSTimeoutSeconds: 30,
	}
}

// Validate checks that every limit is positive.
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"pipeline.sttSlots":          c.STTSlots,
		"pipeline.llmSlots":          c.LLMSlots,
		"pipeline.ttsSlots":          c.TTSSlots,
		"pipeline.sttTimeoutSeconds": c.STTTimeoutSeconds,
		"pipeline.llmTimeoutSeconds": c.LLMTimeoutSeconds,
		"pipeline.ttsTimeoutSeconds": c.TTSTimeoutSeconds,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
