package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleConfig controls Google Cloud Speech-to-Text recognition.
type GoogleConfig struct {
	LanguageCode string
	SampleRateHz int
	Channels     int
}

// Google implements Transcriber using Google Cloud Speech-to-Text.
// Requires the GOOGLE_APPLICATION_CREDENTIALS environment variable.
type Google struct {
	cfg    GoogleConfig
	client *speech.Client
}

func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google speech client: %w", err)
	}
	return &Google{cfg: cfg, client: client}, nil
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("no audio to transcribe")
	}

	recognition := &speechpb.RecognitionConfig{
		Encoding:          encodingForMime(mimeType),
		LanguageCode:      g.cfg.LanguageCode,
		AudioChannelCount: int32(g.cfg.Channels),
	}
	// Opus tracks are always 48kHz inside the container, whatever the
	// capture rate was.
	switch recognition.Encoding {
	case speechpb.RecognitionConfig_WEBM_OPUS, speechpb.RecognitionConfig_OGG_OPUS:
		recognition.SampleRateHertz = 48000
	default:
		recognition.SampleRateHertz = int32(g.cfg.SampleRateHz)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognition,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognition failed: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *Google) Close() error {
	return g.client.Close()
}

// encodingForMime maps a negotiated capture format to the recognition
// encoding. An empty mime type means raw signed 16-bit PCM.
func encodingForMime(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	switch strings.TrimSpace(base) {
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "audio/ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
