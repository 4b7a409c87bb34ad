package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// FFmpegAvailable checks if ffmpeg is installed.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// decodeWithFFmpeg pipes data through ffmpeg, producing canonical 16 kHz mono PCM.
func decodeWithFFmpeg(ctx context.Context, data []byte) (*Clip, error) {
	// #nosec G204 - fixed argument list, input arrives on stdin
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		L_debug("audio: ffmpeg output", "stderr", stderr.String())
		return nil, fmt.Errorf("ffmpeg conversion failed: %w", err)
	}

	raw := stdout.Bytes()
	samples, err := PCMToInt16(raw[:len(raw)-len(raw)%2])
	if err != nil {
		return nil, err
	}
	return &Clip{Samples: samples, SampleRate: SampleRate, Channels: Channels}, nil
}
