package openai

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"tldr/internal/commontypes"
)

// NoMessagesSummary is returned for an empty conversation without calling the model.
const NoMessagesSummary = "No messages found in the specified time frame."

const (
	summaryTemperature  = 0.7
	summarySystemPrompt = "You are a helpful assistant that creates concise summaries of Slack conversations."
)

var summaryPrompt = template.Must(template.New("summary").Parse(`
Please create a concise TLDR summary of the following Slack channel messages.
Focus on the main topics, key discussions, and important points.
Keep the summary under 500 words and make it easy to understand.

Messages:
{{.Messages}}

TLDR Summary:
`))

// Summarize condenses messages into a short thematic summary with one completion call.
func (s *Service) Summarize(ctx context.Context, messages []commontypes.NormalizedMessage) (string, error) {
	if len(messages) == 0 {
		return NoMessagesSummary, nil
	}

	prompt, err := render(summaryPrompt, struct{ Messages string }{FormatTranscript(messages)})
	if err != nil {
		return "", err
	}

	s.logger.Info("Generating summary with OpenAI",
		zap.Int("message_count", len(messages)),
		zap.Int("prompt_length_chars", len(prompt)))

	content, err := s.complete(ctx, summarySystemPrompt, prompt, summaryTemperature)
	if err != nil {
		return "", fmt.Errorf("error generating summary: %w", err)
	}

	s.logger.Info("Summary generated successfully")
	return strings.TrimSpace(content), nil
}

// FormatTranscript renders one "[timestamp] author: content" line per message.
func FormatTranscript(messages []commontypes.NormalizedMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", m.Timestamp, m.AuthorDisplayName, m.Content))
	}
	return strings.Join(lines, "\n")
}
