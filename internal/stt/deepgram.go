package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeepgramConfig controls the Deepgram pre-recorded transcription API.
type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	SampleRate  int
	Channels    int
}

// Deepgram implements Transcriber against the Deepgram REST API.
type Deepgram struct {
	cfg    DeepgramConfig
	client *http.Client
}

func NewDeepgram(cfg DeepgramConfig) *Deepgram {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &Deepgram{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (d *Deepgram) Name() string {
	return "deepgram"
}

func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if strings.TrimSpace(d.cfg.APIKey) == "" {
		return "", errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(audio) == 0 {
		return "", errors.New("no audio to transcribe")
	}

	listenURL, err := buildListenURL(d.cfg, mimeType)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listenURL, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to build Deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.cfg.APIKey)
	req.Header.Set("Content-Type", requestContentType(mimeType))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach Deepgram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepgram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode Deepgram response: %w", err)
	}

	return extractTranscript(response), nil
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Results.Channels) > 0 && len(response.Results.Channels[0].Alternatives) > 0 {
		return strings.TrimSpace(response.Results.Channels[0].Alternatives[0].Transcript)
	}
	return ""
}

// requestContentType maps the negotiated capture format to the body
// content type. An empty mime means raw PCM, which Deepgram describes
// through query parameters instead.
func requestContentType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return "application/octet-stream"
	}
	return mimeType
}

func buildListenURL(cfg DeepgramConfig, mimeType string) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	if strings.TrimSpace(mimeType) == "" {
		query.Set("encoding", "linear16")
		query.Set("sample_rate", fmt.Sprintf("%d", cfg.SampleRate))
		query.Set("channels", fmt.Sprintf("%d", cfg.Channels))
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
