package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

type claude struct {
	client anthropic.Client
	model  string
}

func newAnthropic(apiKey, model, baseURL string) *claude {
	// retries are owned by Client.Generate
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &claude{client: anthropic.NewClient(opts...), model: model}
}

func (c *claude) name() string { return "anthropic:" + c.model }

func (c *claude) call(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			se := &StatusError{Code: apiErr.StatusCode, Err: err}
			if apiErr.Response != nil {
				se.RetryAfter = parseRetryAfter(apiErr.Response.Header)
			}
			return "", se
		}
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errEmptyResponse
}
