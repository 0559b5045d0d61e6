package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// ErrNoImage is returned when the images API answers without a payload.
var ErrNoImage = errors.New("image response contained no data")

// ImageOptions configures the OpenAI image generator.
type ImageOptions struct {
	Options
	Model string
	Size  string
}

// OpenAIImageGenerator produces base64 data URLs through the OpenAI images API.
type OpenAIImageGenerator struct {
	client *openai.Client
	model  string
	size   string
}

// NewOpenAIImageGenerator creates an image generator.
func NewOpenAIImageGenerator(opts ImageOptions) (*OpenAIImageGenerator, error) {
	client, err := newOpenAI(opts.Options)
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		opts.Model = openai.CreateImageModelDallE3
	}
	if opts.Size == "" {
		opts.Size = openai.CreateImageSize1024x1024
	}
	return &OpenAIImageGenerator{client: client, model: opts.Model, size: opts.Size}, nil
}

// GenerateImage returns a data:image/png;base64 URL for the prompt.
func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", ErrNoImage
	}
	if b64 := resp.Data[0].B64JSON; b64 != "" {
		return DataURL("image/png", b64), nil
	}
	if resp.Data[0].URL != "" {
		return resp.Data[0].URL, nil
	}
	return "", ErrNoImage
}

// DataURL formats a base64 payload as a data URL.
func DataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}
