package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider is a minimal completion interface to allow pluggable LLM backends.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	// DefaultProvider is used when LLM_PROVIDER is unset.
	DefaultProvider = ProviderOpenAI

	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

var (
	ErrUnknownProvider = errors.New("llm: unknown provider")
	ErrMissingAPIKey   = errors.New("llm: api key required")
	// ErrMalformedResponse means the provider answered 2xx without usable text.
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, e.Body)
}

// Options tunes provider construction. Zero values select the provider defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch normalize(provider) {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultOpenAIModel
	}
}

// NewProvider builds the named provider.
func NewProvider(name, model, apiKey string, opts Options) (Provider, error) {
	if model == "" {
		model = DefaultModel(name)
	}
	switch normalize(name) {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, opts)
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, opts)
	default:
		return nil, fmt.Errorf("%w: %q (valid options: openai, anthropic)", ErrUnknownProvider, name)
	}
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultProvider
	}
	return name
}
