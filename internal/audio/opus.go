package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

const maxOpusFrameSize = 5760 // 120ms at 48kHz

// decodeOggOpusSafe wraps decodeOggOpus with panic recovery.
// The pion/opus library has bugs that can cause panics on some files.
func decodeOggOpusSafe(data []byte) (clip *Clip, err error) {
	defer func() {
		if r := recover(); r != nil {
			L_warn("audio: opus decoder panicked, recovered", "panic", r)
			clip, err = nil, fmt.Errorf("opus decoder panic: %v", r)
		}
	}()
	return decodeOggOpus(data)
}

// decodeOggOpus decodes an OGG/Opus stream using pure Go.
func decodeOggOpus(data []byte) (*Clip, error) {
	ogg, header, err := oggreader.NewWith(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse OGG container: %w", err)
	}

	sampleRate := int(header.SampleRate)
	channels := int(header.Channels)
	L_debug("audio: OGG header", "sampleRate", sampleRate, "channels", channels)

	decoder := opus.NewDecoder()
	outBuf := make([]byte, maxOpusFrameSize*channels*2)

	var all []int16
	for {
		segments, _, err := ogg.ParseNextPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse OGG page: %w", err)
		}

		for _, segment := range segments {
			if len(segment) == 0 {
				continue
			}
			if _, _, err := decoder.Decode(segment, outBuf); err != nil {
				L_trace("audio: skipping opus packet", "error", err, "len", len(segment))
				continue
			}
			all = append(all, trimmedSamples(outBuf)...)
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from OGG stream")
	}

	return &Clip{Samples: all, SampleRate: sampleRate, Channels: channels}, nil
}

// trimmedSamples reads int16 samples from the decoder buffer, stopping at the
// all-zero tail that marks unused space.
func trimmedSamples(buf []byte) []int16 {
	end := len(buf) - len(buf)%2
	for end >= 2 && binary.LittleEndian.Uint16(buf[end-2:end]) == 0 {
		end -= 2
	}
	samples := make([]int16, end/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:])) // #nosec G115 - bit reinterpretation
	}
	return samples
}
