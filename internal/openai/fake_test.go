package openai

import (
	"context"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	content  string
	err      error
	noChoice bool
	requests []goopenai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return goopenai.ChatCompletionResponse{}, f.err
	}
	if f.noChoice {
		return goopenai.ChatCompletionResponse{}, nil
	}
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: f.content}},
		},
	}, nil
}

func (f *fakeCompleter) lastPrompt() string {
	req := f.requests[len(f.requests)-1]
	return req.Messages[len(req.Messages)-1].Content
}

var fixedNow = time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)

func newTestService(fc *fakeCompleter) *Service {
	s := NewService(fc, "", zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}
