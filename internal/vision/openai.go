package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig controls the OpenAI chat completion API.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// OpenAI implements Describer using a vision-capable chat model.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{client: openai.NewClient(cfg.APIKey), model: model}
}

func (o *OpenAI) Name() string {
	return "openai"
}

// Describe streams the model's answer, forwarding each delta as it
// arrives.
func (o *OpenAI) Describe(ctx context.Context, question string, imagePNG []byte, emit func(chunk string) error) error {
	req := openai.ChatCompletionRequest{
		Model:  o.model,
		Stream: true,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: question},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: pngDataURL(imagePNG)},
					},
				},
			},
		},
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start OpenAI stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read OpenAI stream: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}

func pngDataURL(imagePNG []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(imagePNG)
}
