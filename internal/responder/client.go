// Package responder provides clients for the remote AI responder
// boundary. The pipeline treats three outcomes distinctly: a success
// payload, a structured application error, and a transport failure.
package responder

import (
	"context"
	"fmt"
	"time"
)

// Request is the outbound call to the responder.
type Request struct {
	Text      string
	UserID    string
	SessionID string
	Options   map[string]any
}

// Reply is a successful responder payload. Timestamp may be zero when
// the provider reports none; callers then fall back to the local clock.
type Reply struct {
	Output    string
	Timestamp time.Time
}

// ApplicationError means the service itself declined the request with a
// structured failure payload.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("responder declined: %s", e.Message)
}

// TransportError means the call never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("responder unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is the interface for responder providers.
type Client interface {
	// Ask sends one question and blocks until an outcome is known.
	Ask(ctx context.Context, req *Request) (*Reply, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of responder provider.
type Provider string

const (
	ProviderWebhook   Provider = "webhook"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Config carries provider credentials and endpoints.
type Config struct {
	WebhookURL      string
	WebhookSecret   string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Timeout         time.Duration
}

// NewClient creates a responder client for the configured provider.
func NewClient(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderWebhook:
		return NewWebhookClient(cfg.WebhookURL, cfg.WebhookSecret, cfg.Timeout)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey)
	default:
		return nil, fmt.Errorf("unknown responder provider %q", provider)
	}
}
