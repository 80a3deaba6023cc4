package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	lastMessages []llms.MessageContent
	lastOpts     llms.CallOptions
	reply        string
	info         map[string]any
	err          error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMessages = messages
	for _, opt := range options {
		opt(&f.lastOpts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: f.reply, GenerationInfo: f.info},
		},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestExecute_BuildsMessagesAndTemperature(t *testing.T) {
	model := &fakeModel{
		reply: "a report",
		info: map[string]any{
			"PromptTokens":     120,
			"CompletionTokens": 30,
			"TotalTokens":      150,
		},
	}
	c := New(model)

	resp, err := c.Execute(context.Background(), "system text", "user text", 0.3)
	if err != nil {
		t.Fatal(err)
	}

	if resp.Message != "a report" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.PromptTokens != 120 || resp.CompletionTokens != 30 || resp.TotalTokens != 150 {
		t.Errorf("unexpected token counts: %+v", resp)
	}

	if len(model.lastMessages) != 2 {
		t.Fatalf("expected system + human messages, got %d", len(model.lastMessages))
	}
	if model.lastMessages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message role = %v", model.lastMessages[0].Role)
	}
	if model.lastMessages[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("second message role = %v", model.lastMessages[1].Role)
	}
	if model.lastOpts.Temperature != 0.3 {
		t.Errorf("temperature = %v", model.lastOpts.Temperature)
	}
}

func TestExecute_ModelError(t *testing.T) {
	c := New(&fakeModel{err: errors.New("boom")})
	if _, err := c.Execute(context.Background(), "s", "u", 0.7); err == nil {
		t.Fatal("expected error from model")
	}
}

func TestExecute_MissingUsageFallsBackToSum(t *testing.T) {
	model := &fakeModel{
		reply: "ok",
		info: map[string]any{
			"PromptTokens":     10,
			"CompletionTokens": 5,
		},
	}
	resp, err := New(model).Execute(context.Background(), "s", "u", 0)
	if err != nil {
		t.Fatal(err)
	}
	if resp.TotalTokens != 15 {
		t.Errorf("expected summed total, got %d", resp.TotalTokens)
	}
}
