// Package audio converts between the compressed and container formats the
// voice pipeline meets and its canonical shape: 16-bit signed little-endian
// mono PCM at 16 kHz.
package audio

import (
	"encoding/binary"
	"fmt"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/zeozeozeo/gomplerate"
)

const (
	SampleRate  = 16000 // canonical rate, also what whisper.cpp requires
	Channels    = 1
	SampleWidth = 2  // bytes per sample
	HeaderSize  = 44 // canonical PCM WAV header
)

// Clip is decoded audio: interleaved int16 samples plus their layout.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)/c.Channels) / float64(c.SampleRate)
}

// Normalize downmixes to mono and resamples to 16 kHz.
func (c *Clip) Normalize() *Clip {
	samples := c.Samples
	if c.Channels > 1 {
		samples = ToMono(samples, c.Channels)
	}
	if c.SampleRate != SampleRate {
		L_trace("audio: resampling", "from", c.SampleRate, "to", SampleRate)
		samples = Resample(samples, c.SampleRate, SampleRate)
	}
	return &Clip{Samples: samples, SampleRate: SampleRate, Channels: Channels}
}

// PCMToInt16 decodes 16-bit little-endian PCM. The input must hold whole samples.
func PCMToInt16(pcm []byte) ([]int16, error) {
	if len(pcm)%SampleWidth != 0 {
		return nil, fmt.Errorf("pcm length %d is not a multiple of %d", len(pcm), SampleWidth)
	}
	samples := make([]int16, len(pcm)/SampleWidth)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:])) // #nosec G115 - bit reinterpretation
	}
	return samples, nil
}

// Int16ToPCM encodes samples as 16-bit little-endian PCM.
func Int16ToPCM(samples []int16) []byte {
	out := make([]byte, len(samples)*SampleWidth)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s)) // #nosec G115 - bit reinterpretation
	}
	return out
}

// ToMono converts multi-channel audio to mono by averaging channels.
func ToMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}

	mono := make([]int16, len(samples)/channels)
	for i := range mono {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		mono[i] = int16(sum / int32(channels)) // #nosec G115 - average stays in int16 range
	}
	return mono
}

// Resample converts mono audio from one sample rate to another using gomplerate.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}

	resampler, err := gomplerate.NewResampler(1, fromRate, toRate)
	if err != nil {
		L_warn("audio: resampler creation failed, skipping resample", "error", err)
		return samples
	}

	return resampler.ResampleInt16(samples)
}

// Int16ToFloat32 converts int16 samples to float32 normalized to [-1, 1].
func Int16ToFloat32(samples []int16) []float32 {
	result := make([]float32, len(samples))
	for i, s := range samples {
		result[i] = float32(s) / 32768.0
	}
	return result
}
