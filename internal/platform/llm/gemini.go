package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, &ProviderError{Provider: "gemini", Code: ErrCodeAPIKey, Message: "GEMINI_API_KEY is not set"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ProviderError{
			Provider: "gemini",
			Code:     ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}
	return &GeminiClient{client: client, model: config.Model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &ProviderError{
			Provider: "gemini",
			Code:     classify(err),
			Message:  "Failed to generate content",
			Err:      err,
		}
	}
	if result == nil {
		return "", &ProviderError{Provider: "gemini", Code: ErrCodeInvalidInput, Message: "No response generated"}
	}

	text, err := result.Text()
	if err != nil {
		return "", &ProviderError{
			Provider: "gemini",
			Code:     ErrCodeInvalidInput,
			Message:  "Failed to extract response text",
			Err:      err,
		}
	}
	if text == "" {
		return "", &ProviderError{Provider: "gemini", Code: ErrCodeInvalidInput, Message: "Empty response generated"}
	}
	return text, nil
}

func (c *GeminiClient) Name() string {
	return "gemini"
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource_exhausted"):
		return ErrCodeRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "api key"):
		return ErrCodeAPIKey
	}
	return ErrCodeServiceDown
}
