// Package ocr reads identity documents with an OpenAI-compatible vision model.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/veridid/internal/extraction"
	"github.com/JaimeStill/veridid/pkg/formatting"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// Client performs document extraction against a vision chat-completion endpoint.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	detail    openai.ImageURLDetail
	store     storage.System
	logger    *slog.Logger
}

// New creates a Client for the configured provider. Image references that
// are content URIs are read back from store.
func New(cfg *Config, store storage.System, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ocr provider not configured")
	}

	var oc openai.ClientConfig
	switch cfg.Provider {
	case ProviderAzure:
		oc = openai.DefaultAzureConfig(cfg.Token, cfg.BaseURL)
		oc.APIVersion = cfg.APIVersion
	default:
		oc = openai.DefaultConfig(cfg.Token)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
	}
	if timeout := cfg.TimeoutDuration(); timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		api:       openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		detail:    openai.ImageURLDetail(cfg.Detail),
		store:     store,
		logger:    logger.With("system", "ocr"),
	}, nil
}

// PerformExtraction sends the referenced image to the vision model and
// parses the structured identity fields from its response.
func (c *Client) PerformExtraction(ctx context.Context, imageRef string) (extraction.Fields, error) {
	dataURI, err := c.resolve(ctx, imageRef)
	if err != nil {
		return extraction.Fields{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userText},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI, Detail: c.detail},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return extraction.Fields{}, ctx.Err()
		}
		return extraction.Fields{}, fmt.Errorf("%w: %w", ErrRecognition, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return extraction.Fields{}, fmt.Errorf("%w: empty response", ErrRecognition)
	}

	fields, err := formatting.Parse[extraction.Fields](resp.Choices[0].Message.Content)
	if err != nil {
		return extraction.Fields{}, fmt.Errorf("%w: %w", ErrRecognition, err)
	}

	c.logger.InfoContext(
		ctx, "document recognized",
		"model", c.model,
		"confidence", fields.Confidence,
		"tokens", resp.Usage.TotalTokens,
	)
	return fields, nil
}

func (c *Client) resolve(ctx context.Context, imageRef string) (string, error) {
	switch {
	case strings.HasPrefix(imageRef, "data:"):
		return imageRef, nil
	case storage.IsURI(imageRef):
		if c.store == nil {
			return "", fmt.Errorf("%w: no content store", ErrUnresolvable)
		}
		data, err := storage.Get(ctx, c.store, imageRef)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnresolvable, err)
		}
		return DataURI(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnresolvable, imageRef)
	}
}

// DataURI encodes image bytes as a base64 data URI using the sniffed content type.
func DataURI(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," +
		base64.StdEncoding.EncodeToString(data)
}
