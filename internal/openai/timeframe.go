package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"

	"go.uber.org/zap"

	"tldr/internal/commontypes"
)

const (
	timeframeTemperature = 0.1
	fallbackSpan         = time.Hour
)

var (
	// ErrUnresolved marks a phrase the model could not turn into a window.
	// The window returned alongside it is the fallback and is always usable.
	ErrUnresolved = errors.New("timeframe could not be resolved")
	// ErrInvertedWindow is wrapped with ErrUnresolved when start is after end.
	ErrInvertedWindow = errors.New("start_time is after end_time")
	errMissingField   = errors.New("missing start_time or end_time")
)

const timeframeSystemPrompt = "You are a helpful assistant that parses natural language time requests into JSON format with start and end times in ISO format."

var timeframePrompt = template.Must(template.New("timeframe").Parse(`
Parse the following natural language request and extract start and end times.
Return ONLY a JSON object with 'start_time' and 'end_time' fields in ISO format (UTC).

The current time is {{.Now}}.

Request: {{.Phrase}}

Examples:
- "last hour" -> {"start_time": "2024-01-01T10:00:00Z", "end_time": "2024-01-01T11:00:00Z"}
- "yesterday" -> {"start_time": "2024-01-01T00:00:00Z", "end_time": "2024-01-01T23:59:59Z"}
- "last 3 hours" -> {"start_time": "2024-01-01T08:00:00Z", "end_time": "2024-01-01T11:00:00Z"}

Return only the JSON object:
`))

type timeframeResponse struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// ResolveTimeframe asks the model to turn phrase into a UTC window.
//
// It always returns a usable window. When the call fails or the answer
// cannot be used, the window is the hour ending now and the error wraps
// ErrUnresolved with the cause.
func (s *Service) ResolveTimeframe(ctx context.Context, phrase string) (commontypes.TimeWindow, error) {
	now := s.now().UTC()

	window, err := s.resolve(ctx, phrase, now)
	if err != nil {
		s.logger.Warn("Error parsing timeframe, falling back to the last hour",
			zap.String("phrase", phrase),
			zap.Error(err))
		return FallbackWindow(now), fmt.Errorf("%w: %w", ErrUnresolved, err)
	}

	s.logger.Debug("Resolved timeframe",
		zap.String("phrase", phrase),
		zap.Time("start", window.Start),
		zap.Time("end", window.End))
	return window, nil
}

func (s *Service) resolve(ctx context.Context, phrase string, now time.Time) (commontypes.TimeWindow, error) {
	prompt, err := render(timeframePrompt, struct {
		Now    string
		Phrase string
	}{
		Now:    now.Format(time.RFC3339),
		Phrase: phrase,
	})
	if err != nil {
		return commontypes.TimeWindow{}, err
	}

	content, err := s.complete(ctx, timeframeSystemPrompt, prompt, timeframeTemperature)
	if err != nil {
		return commontypes.TimeWindow{}, err
	}
	return ParseTimeframe(content)
}

// ParseTimeframe decodes a model answer of the form
// {"start_time": "...", "end_time": "..."}, optionally wrapped in a code fence.
func ParseTimeframe(content string) (commontypes.TimeWindow, error) {
	var resp timeframeResponse
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &resp); err != nil {
		return commontypes.TimeWindow{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if resp.StartTime == nil || resp.EndTime == nil {
		return commontypes.TimeWindow{}, errMissingField
	}

	start, err := parseISOTime(*resp.StartTime)
	if err != nil {
		return commontypes.TimeWindow{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := parseISOTime(*resp.EndTime)
	if err != nil {
		return commontypes.TimeWindow{}, fmt.Errorf("end_time: %w", err)
	}
	if start.After(end) {
		return commontypes.TimeWindow{}, ErrInvertedWindow
	}
	return commontypes.TimeWindow{Start: start, End: end}, nil
}

// FallbackWindow is the hour ending at now.
func FallbackWindow(now time.Time) commontypes.TimeWindow {
	now = now.UTC()
	return commontypes.TimeWindow{Start: now.Add(-fallbackSpan), End: now}
}

// stripCodeFence removes a surrounding ``` or ```json block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language label such as "json", with or without a line break after it.
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseISOTime accepts RFC 3339 and zone-less date-times, which are read as UTC.
func parseISOTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", s)
}
