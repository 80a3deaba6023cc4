// Package llm wraps a langchaingo model behind the two-call surface the
// researcher needs: one system instruction, one user instruction, a sampling
// temperature, and token-usage metadata on the way back.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Response carries the generated text plus call metadata.
type Response struct {
	Message          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Duration         time.Duration
	TokensPerSec     float64
}

type Client struct {
	Model llms.Model
}

func New(model llms.Model) *Client {
	return &Client{Model: model}
}

// Execute sends a system and a user message and returns the model's reply.
func (c *Client) Execute(ctx context.Context, system, user string, temperature float64) (*Response, error) {
	start := time.Now()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	resp, err := c.Model.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	choice := resp.Choices[0]
	out := &Response{
		Message:  choice.Content,
		Duration: time.Since(start),
	}

	if choice.GenerationInfo != nil {
		if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
			out.PromptTokens = v
		}
		if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
			out.CompletionTokens = v
		}
		if v, ok := choice.GenerationInfo["TotalTokens"].(int); ok {
			out.TotalTokens = v
		}
	}
	if out.TotalTokens == 0 {
		out.TotalTokens = out.PromptTokens + out.CompletionTokens
	}
	if secs := out.Duration.Seconds(); secs > 0 {
		out.TokensPerSec = float64(out.CompletionTokens) / secs
	}

	return out, nil
}
