package openai

import (
	"context"
	"errors"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimeframe_WellFormed(t *testing.T) {
	want := struct{ start, end time.Time }{
		start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		end:   time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		content string
	}{
		{"bare", `{"start_time":"2024-01-01T10:00:00Z","end_time":"2024-01-01T11:00:00Z"}`},
		{"padded", "\n  {\"start_time\": \"2024-01-01T10:00:00Z\", \"end_time\": \"2024-01-01T11:00:00Z\"}  \n"},
		{"json fence", "```json\n{\"start_time\":\"2024-01-01T10:00:00Z\",\"end_time\":\"2024-01-01T11:00:00Z\"}\n```"},
		{"plain fence", "```\n{\"start_time\":\"2024-01-01T10:00:00Z\",\"end_time\":\"2024-01-01T11:00:00Z\"}\n```"},
		{"inline json fence", "```json{\"start_time\":\"2024-01-01T10:00:00Z\",\"end_time\":\"2024-01-01T11:00:00Z\"}```"},
		{"spaced json fence", "```json {\"start_time\":\"2024-01-01T10:00:00Z\",\"end_time\":\"2024-01-01T11:00:00Z\"}```"},
		{"inline fence", "```{\"start_time\":\"2024-01-01T10:00:00Z\",\"end_time\":\"2024-01-01T11:00:00Z\"}```"},
		{"offset", `{"start_time":"2024-01-01T12:00:00+02:00","end_time":"2024-01-01T13:00:00+02:00"}`},
		{"zoneless", `{"start_time":"2024-01-01T10:00:00","end_time":"2024-01-01T11:00:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{content: tt.content}
			got, err := newTestService(fc).ResolveTimeframe(context.Background(), "last hour")
			require.NoError(t, err)
			assert.True(t, want.start.Equal(got.Start), "start = %s", got.Start)
			assert.True(t, want.end.Equal(got.End), "end = %s", got.End)
			assert.Len(t, fc.requests, 1)
		})
	}
}

func TestResolveTimeframe_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		fc      *fakeCompleter
		wantErr error
	}{
		{"garbage", &fakeCompleter{content: "Sure! Yesterday means the day before today."}, nil},
		{"missing end", &fakeCompleter{content: `{"start_time":"2024-01-01T10:00:00Z"}`}, nil},
		{"not a timestamp", &fakeCompleter{content: `{"start_time":"yesterday","end_time":"today"}`}, nil},
		{"inverted", &fakeCompleter{content: `{"start_time":"2024-01-01T11:00:00Z","end_time":"2024-01-01T10:00:00Z"}`}, ErrInvertedWindow},
		{"api failure", &fakeCompleter{err: errors.New("401 unauthorized")}, nil},
		{"no choices", &fakeCompleter{noChoice: true}, ErrEmptyCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestService(tt.fc).ResolveTimeframe(context.Background(), "yesterday")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnresolved)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, fixedNow, got.End)
			assert.Equal(t, fixedNow.Add(-time.Hour), got.Start)
			assert.Equal(t, time.Hour, got.Duration())
			assert.Len(t, tt.fc.requests, 1)
		})
	}
}

func TestResolveTimeframe_Request(t *testing.T) {
	fc := &fakeCompleter{content: `{"start_time":"2024-01-01T10:00:00Z","end_time":"2024-01-01T11:00:00Z"}`}
	_, err := newTestService(fc).ResolveTimeframe(context.Background(), "last 3 hours")
	require.NoError(t, err)

	req := fc.requests[0]
	assert.Equal(t, goopenai.GPT3Dot5Turbo, req.Model)
	assert.InDelta(t, 0.1, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, fc.lastPrompt(), "Request: last 3 hours")
	assert.Contains(t, fc.lastPrompt(), "2024-03-01T00:30:00Z")
	assert.Contains(t, fc.lastPrompt(), `"yesterday" -> {"start_time"`)
}

func TestFallbackWindow_DayBoundary(t *testing.T) {
	// 00:30 on the first of the month: the previous hour is in February.
	w := FallbackWindow(fixedNow)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 30, 0, 0, time.UTC), w.Start)
	assert.Equal(t, fixedNow, w.End)
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```JSON\n{\"a\":1}```":   `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```{\"a\":1}```":         `{"a":1}`,
		"```json{\"a\":1}```":     `{"a":1}`,
		"```json {\"a\":1}```":    `{"a":1}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, stripCodeFence(in), in)
	}
}
