package audio

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func sine(n, rate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestPCMToInt16(t *testing.T) {
	samples, err := PCMToInt16([]byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80})
	if err != nil {
		t.Fatalf("PCMToInt16: %v", err)
	}
	want := []int16{1, -1, -32768}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}

	if _, err := PCMToInt16([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Error("expected error for odd-length PCM")
	}
}

func TestInt16ToPCMRoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	out, err := PCMToInt16(Int16ToPCM(in))
	if err != nil {
		t.Fatalf("PCMToInt16: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d = %d, want %d", i, out[i], in[i])
		}
	}
}

func TestToMono(t *testing.T) {
	stereo := []int16{100, 200, -50, 50, 32767, 32767}
	mono := ToMono(stereo, 2)
	want := []int16{150, 0, 32767}
	if len(mono) != len(want) {
		t.Fatalf("len = %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %d, want %d", i, mono[i], want[i])
		}
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := sine(1600, SampleRate, 440)
	data, err := EncodeWAV(samples, SampleRate, Channels)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != HeaderSize+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(data), HeaderSize+len(samples)*2)
	}

	h, err := ParseWAVHeader(data)
	if err != nil {
		t.Fatalf("ParseWAVHeader: %v", err)
	}
	if h.SampleRate != SampleRate || h.NumChannels != 1 || h.BitsPerSample != 16 {
		t.Errorf("header = %+v", h)
	}
	if h.Subchunk2Size != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", h.Subchunk2Size, len(samples)*2)
	}
}

func TestStripWAVHeader(t *testing.T) {
	if _, err := StripWAVHeader([]byte("RIFF")); err == nil {
		t.Error("expected error for short data")
	}
	junk := make([]byte, 64)
	if _, err := StripWAVHeader(junk); err == nil {
		t.Error("expected error for non-WAV data")
	}

	samples := []int16{1, 2, 3}
	data, err := EncodeWAV(samples, SampleRate, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	pcm, err := StripWAVHeader(data)
	if err != nil {
		t.Fatalf("StripWAVHeader: %v", err)
	}
	if string(pcm) != string(Int16ToPCM(samples)) {
		t.Errorf("stripped payload mismatch")
	}
}

func TestWriteWAVFileReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	samples := sine(3200, SampleRate, 300)

	if err := WriteWAVFile(path, Int16ToPCM(samples)); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	h, err := ParseWAVHeader(data)
	if err != nil {
		t.Fatalf("ParseWAVHeader: %v", err)
	}
	if h.SampleRate != SampleRate || h.NumChannels != 1 || h.BitsPerSample != 16 {
		t.Errorf("header = %+v", h)
	}

	clip, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(clip.Samples) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(clip.Samples), len(samples))
	}
	for i := range samples {
		if clip.Samples[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, clip.Samples[i], samples[i])
		}
	}
}

func TestWriteWAVFileRejectsOddPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.wav")
	if err := WriteWAVFile(path, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for odd-length PCM")
	}
}

func TestToPCM16Mono16kFromStereo8k(t *testing.T) {
	const rate = 8000
	mono := sine(rate, rate, 220) // one second
	stereo := make([]int16, 0, len(mono)*2)
	for _, s := range mono {
		stereo = append(stereo, s, s)
	}
	wavData, err := EncodeWAV(stereo, rate, 2)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	pcm, err := ToPCM16Mono16k(context.Background(), wavData)
	if err != nil {
		t.Fatalf("ToPCM16Mono16k: %v", err)
	}
	if len(pcm)%SampleWidth != 0 {
		t.Fatalf("output length %d is not whole samples", len(pcm))
	}

	got := len(pcm) / SampleWidth
	want := SampleRate // one second at 16 kHz
	if math.Abs(float64(got-want)) > float64(want)/50 {
		t.Errorf("output samples = %d, want about %d", got, want)
	}
}

func TestDecodeRejectsEmpty(t *testing.T) {
	if _, err := Decode(context.Background(), nil); err == nil {
		t.Error("expected error for empty payload")
	}
}

// Output of the transcode is always whole 16-bit mono samples at 16 kHz.
func TestToPCM16Mono16kShapeProperty(t *testing.T) {
	rates := []int{8000, 11025, 16000, 22050, 24000, 44100, 48000}

	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.SampledFrom(rates).Draw(t, "rate")
		channels := rapid.IntRange(1, 2).Draw(t, "channels")
		frames := rapid.IntRange(64, 2000).Draw(t, "frames")
		samples := rapid.SliceOfN(rapid.Int16(), frames*channels, frames*channels).Draw(t, "samples")

		wavData, err := EncodeWAV(samples, rate, channels)
		if err != nil {
			t.Fatalf("EncodeWAV: %v", err)
		}
		pcm, err := ToPCM16Mono16k(context.Background(), wavData)
		if err != nil {
			t.Fatalf("ToPCM16Mono16k: %v", err)
		}
		if len(pcm)%SampleWidth != 0 {
			t.Fatalf("output length %d is not whole 16-bit samples", len(pcm))
		}

		if len(pcm) == 0 {
			t.Fatalf("no output for %d frames at %d Hz", frames, rate)
		}
	})
}

// testdata/mpeg2-22k-mono.mp3: ID3-tagged MPEG-2 Layer III, 22050 Hz mono,
// 80 frames of 576 samples.
const (
	mp3Fixture       = "testdata/mpeg2-22k-mono.mp3"
	mp3FixtureRate   = 22050
	mp3FixtureFrames = 80 * 576
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(mp3Fixture)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func near(got, want int, tolerance float64) bool {
	return math.Abs(float64(got-want)) <= float64(want)*tolerance
}

func TestDecodeMP3(t *testing.T) {
	clip, err := DecodeMP3(readFixture(t))
	if err != nil {
		t.Fatalf("DecodeMP3: %v", err)
	}
	if clip.SampleRate != mp3FixtureRate {
		t.Errorf("sample rate = %d, want %d", clip.SampleRate, mp3FixtureRate)
	}
	if clip.Channels != 2 {
		t.Errorf("channels = %d, want 2", clip.Channels)
	}
	if frames := len(clip.Samples) / clip.Channels; !near(frames, mp3FixtureFrames, 0.02) {
		t.Errorf("frames = %d, want about %d", frames, mp3FixtureFrames)
	}
}

func TestMP3ToPCM16Mono16k(t *testing.T) {
	one := readFixture(t)
	wantOne := mp3FixtureFrames * SampleRate / mp3FixtureRate

	tests := []struct {
		name   string
		chunks int
	}{
		{"single file", 1},
		{"concatenated chunks", 2},
		{"three chunks", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data []byte
			for i := 0; i < tt.chunks; i++ {
				data = append(data, one...)
			}
			if !matches(Detect(data), "audio/mpeg") {
				t.Fatalf("detected %s, want audio/mpeg", Detect(data))
			}

			pcm, err := ToPCM16Mono16k(context.Background(), data)
			if err != nil {
				t.Fatalf("ToPCM16Mono16k: %v", err)
			}
			if len(pcm)%SampleWidth != 0 {
				t.Fatalf("output length %d is not whole samples", len(pcm))
			}
			want := wantOne * tt.chunks
			if got := len(pcm) / SampleWidth; !near(got, want, 0.02) {
				t.Errorf("samples = %d, want about %d", got, want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	wavData, err := EncodeWAV([]int16{1, 2, 3, 4}, SampleRate, 1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		data  []byte
		types []string
		want  bool
	}{
		{"wav among several", wavData, []string{"audio/mpeg", "audio/wav"}, true},
		{"wav alone", wavData, []string{"audio/wav"}, true},
		{"wav is not mp3", wavData, []string{"audio/mpeg", "audio/ogg"}, false},
		{"text", []byte("hello there"), []string{"audio/wav", "audio/mpeg"}, false},
		{"no types", wavData, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(Detect(tt.data), tt.types...); got != tt.want {
				t.Errorf("matches(%s, %v) = %v, want %v", Detect(tt.data), tt.types, got, tt.want)
			}
		})
	}
}
