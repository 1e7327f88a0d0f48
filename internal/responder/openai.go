package responder

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient answers questions through the OpenAI chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI responder client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Ask sends the question as a single-turn chat completion.
func (c *OpenAIClient) Ask(ctx context.Context, req *Request) (*Reply, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Text,
			},
		},
		MaxTokens: 4096,
		User:      req.UserID,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ApplicationError{Message: apiErr.Message}
		}
		return nil, &TransportError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &ApplicationError{Message: "completion returned no choices"}
	}

	return &Reply{Output: resp.Choices[0].Message.Content}, nil
}
