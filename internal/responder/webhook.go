package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chatRequest is the webhook wire format for an agent workflow.
type chatRequest struct {
	ChatInput string `json:"chatInput"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// chatResponse covers the response shapes agent workflows produce.
// Workflows disagree on the output field name, so every known variant
// is captured and the first non-empty one wins.
type chatResponse struct {
	Success   *bool  `json:"success,omitempty"`
	Output    string `json:"output,omitempty"`
	Text      string `json:"text,omitempty"`
	Response  string `json:"response,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// WebhookClient talks to a JSON webhook fronting an AI agent workflow.
type WebhookClient struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewWebhookClient creates a webhook responder client.
func NewWebhookClient(url, secret string, timeout time.Duration) (*WebhookClient, error) {
	if url == "" {
		return nil, errors.New("webhook URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &WebhookClient{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name returns the provider name.
func (c *WebhookClient) Name() string {
	return "webhook"
}

// Ask posts the question to the webhook and maps the three outcomes:
// success payload, structured failure, or transport error.
func (c *WebhookClient) Ask(ctx context.Context, req *Request) (*Reply, error) {
	body, err := json.Marshal(chatRequest{
		ChatInput: req.Text,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.secret != "" {
		httpReq.Header.Set("X-Webhook-Secret", c.secret)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ApplicationError{
			Message: fmt.Sprintf("webhook returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Some workflows answer with a bare string.
		var plain string
		if json.Unmarshal(raw, &plain) == nil && plain != "" {
			return &Reply{Output: plain}, nil
		}
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if payload.Success != nil && !*payload.Success {
		return nil, &ApplicationError{Message: payload.errorText()}
	}
	if payload.Error != nil {
		return nil, &ApplicationError{Message: payload.Error.Message}
	}

	output := payload.output()
	if output == "" {
		output = string(raw)
	}

	reply := &Reply{Output: output}
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Timestamp); err == nil {
			reply.Timestamp = ts
		}
	}
	return reply, nil
}

func (r *chatResponse) output() string {
	for _, candidate := range []string{r.Output, r.Text, r.Response, r.Message} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (r *chatResponse) errorText() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return "unknown responder failure"
}
