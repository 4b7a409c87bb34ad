package stt

import (
	"context"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/roelfdiedericks/voicegate/internal/audio"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// GoogleProvider implements STT using Google Cloud Speech-to-Text.
type GoogleProvider struct {
	client   *speech.Client
	language string
}

// NewGoogleProvider creates a Speech client. Without an API key the client
// falls back to Application Default Credentials.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}

	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	client, err := speech.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	L_info("stt: google provider initialized", "language", lang, "apiKey", cfg.APIKey != "")
	return &GoogleProvider{client: client, language: lang}, nil
}

// Transcribe sends the whole WAV file as a single synchronous Recognize call.
func (g *GoogleProvider) Transcribe(ctx context.Context, wavPath string) (string, error) {
	L_debug("stt: google transcribing", "file", wavPath)

	// #nosec G304 - scratch file created by this process
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read audio file: %w", err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            audio.SampleRate,
			AudioChannelCount:          audio.Channels,
			LanguageCode:               g.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}

	var transcripts []string
	for _, r := range resp.GetResults() {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			transcripts = append(transcripts, alts[0].GetTranscript())
		}
	}

	transcript := JoinSegments(transcripts)
	L_debug("stt: google transcription complete", "results", len(transcripts), "length", len(transcript))
	return transcript, nil
}

// Name returns the provider name.
func (g *GoogleProvider) Name() string {
	return "google"
}

// Close shuts down the gRPC connection.
func (g *GoogleProvider) Close() error {
	return g.client.Close()
}
