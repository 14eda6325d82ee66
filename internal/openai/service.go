package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the API answers without any usable choice.
var ErrEmptyCompletion = errors.New("openai returned empty completion")

// ChatCompleter is the subset of *goopenai.Client the service needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Service resolves timeframes and summarizes conversations through one
// long-lived completion client.
type Service struct {
	client ChatCompleter
	model  string
	logger *zap.Logger
	now    func() time.Time
}

func NewService(client ChatCompleter, model string, logger *zap.Logger) *Service {
	if model == "" {
		model = goopenai.GPT3Dot5Turbo
	}
	return &Service{
		client: client,
		model:  model,
		logger: logger.Named("openai"),
		now:    time.Now,
	}
}

func (s *Service) complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("internal error: failed to execute prompt template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
