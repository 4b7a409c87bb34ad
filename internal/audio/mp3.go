package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes MP3 data. go-mp3 always yields 16-bit little-endian stereo.
func DecodeMP3(data []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open mp3 stream: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 frames: %w", err)
	}
	// A truncated final frame may leave a partial stereo sample; drop it.
	raw = raw[:len(raw)-len(raw)%4]
	if len(raw) == 0 {
		return nil, fmt.Errorf("mp3 stream decoded to no samples")
	}

	samples, err := PCMToInt16(raw)
	if err != nil {
		return nil, err
	}

	return &Clip{Samples: samples, SampleRate: dec.SampleRate(), Channels: 2}, nil
}
