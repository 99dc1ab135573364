package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiConfig controls the Gemini generateContent API.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Gemini implements Describer against the Gemini REST API.
type Gemini struct {
	client *http.Client
	cfg    GeminiConfig
}

func NewGemini(client *http.Client, cfg GeminiConfig) *Gemini {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gemini{client: client, cfg: cfg}
}

func (g *Gemini) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Describe sends the question plus screenshot to Gemini and replays
// the answer word by word so downstream pacing matches a live stream.
func (g *Gemini) Describe(ctx context.Context, question string, imagePNG []byte, emit func(chunk string) error) error {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return errors.New("GEMINI_API_KEY is not configured")
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: question},
				{InlineData: &geminiInlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(imagePNG),
				}},
			},
		}},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	httpReq.Header.Set("x-goog-api-key", g.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach Gemini: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode Gemini response: %w", err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("gemini error: %s", parsed.Error.Message)
	}

	answer := collectAnswer(parsed)
	if answer == "" {
		return errors.New("gemini returned an empty answer")
	}

	for _, word := range strings.Fields(answer) {
		if err := emit(word + " "); err != nil {
			return err
		}
	}
	return nil
}

func collectAnswer(parsed geminiResponse) string {
	var parts []string
	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}
