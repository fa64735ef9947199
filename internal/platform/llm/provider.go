// Package llm wraps the text-generation provider used by the interview
// assistant.
package llm

import (
	"context"
	"fmt"
)

// Provider generates text for a single prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ProviderError is an error from an LLM provider.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
	ErrCodeDisabled     = "disabled"
)

// ProviderFactory creates a new provider instance.
type ProviderFactory func() (Provider, error)

var providers = make(map[string]ProviderFactory)

func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

func NewProvider(name string) (Provider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return factory()
}

// Disabled always fails. It stands in when no provider is configured so every
// call site takes its fallback path.
type Disabled struct{}

func (Disabled) Generate(ctx context.Context, prompt string) (string, error) {
	return "", &ProviderError{Provider: "disabled", Code: ErrCodeDisabled, Message: "no LLM provider configured"}
}

func (Disabled) Name() string { return "disabled" }
