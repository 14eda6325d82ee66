package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tldr/internal/commontypes"
	"tldr/internal/openai"
	"tldr/internal/slack"
	"tldr/internal/store"
)

type Resolver interface {
	ResolveTimeframe(ctx context.Context, phrase string) (commontypes.TimeWindow, error)
}

type Fetcher interface {
	FetchWindow(ctx context.Context, channelID string, window commontypes.TimeWindow) ([]commontypes.PlatformMessage, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, messages []commontypes.NormalizedMessage) (string, error)
}

// Auditor records each completed run. *store.Store implements it.
type Auditor interface {
	RecordInvocation(ctx context.Context, inv store.Invocation) error
}

type Request struct {
	ChannelID string
	UserID    string
	Phrase    string
	// OnSummarizing, if set, is called right before the summary call.
	OnSummarizing func()
}

// Report is the outcome of one run.
type Report struct {
	Phrase string
	Window commontypes.TimeWindow
	// FallbackReason is set when the phrase was not understood and the
	// last hour was used instead.
	FallbackReason error
	MessageCount   int
	Summary        string
	Empty          bool
}

// Fallback reports whether the window is the default one.
func (r *Report) Fallback() bool {
	return r.FallbackReason != nil
}

type Pipeline struct {
	resolver   Resolver
	fetcher    Fetcher
	summarizer Summarizer
	auditor    Auditor
	logger     *zap.Logger
}

// New wires a pipeline. auditor may be nil.
func New(resolver Resolver, fetcher Fetcher, summarizer Summarizer, auditor Auditor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		fetcher:    fetcher,
		summarizer: summarizer,
		auditor:    auditor,
		logger:     logger.Named("pipeline"),
	}
}

// Run resolves the phrase, fetches the channel history in that window and
// summarizes it. Fetch and summary failures are returned; an unresolved
// phrase is not an error and shows up as Report.FallbackReason.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{Phrase: req.Phrase}

	window, err := p.resolver.ResolveTimeframe(ctx, req.Phrase)
	if err != nil {
		if !errors.Is(err, openai.ErrUnresolved) {
			return nil, fmt.Errorf("resolving timeframe: %w", err)
		}
		report.FallbackReason = err
	}
	report.Window = window

	raw, err := p.fetcher.FetchWindow(ctx, req.ChannelID, window)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	messages := slack.Normalize(raw)
	report.MessageCount = len(messages)

	p.logger.Info("Processing messages",
		zap.String("channel_id", req.ChannelID),
		zap.String("phrase", req.Phrase),
		zap.Time("start", window.Start),
		zap.Time("end", window.End),
		zap.Bool("fallback", report.Fallback()),
		zap.Int("total_messages", len(raw)),
		zap.Int("human_messages", len(messages)))

	if len(messages) == 0 {
		report.Empty = true
		p.audit(ctx, req, report)
		return report, nil
	}

	if req.OnSummarizing != nil {
		req.OnSummarizing()
	}
	summary, err := p.summarizer.Summarize(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("summarizing messages: %w", err)
	}
	report.Summary = summary

	p.audit(ctx, req, report)
	return report, nil
}

func (p *Pipeline) audit(ctx context.Context, req Request, report *Report) {
	if p.auditor == nil {
		return
	}
	err := p.auditor.RecordInvocation(ctx, store.Invocation{
		ChannelID:    req.ChannelID,
		UserID:       req.UserID,
		Phrase:       req.Phrase,
		WindowStart:  report.Window.Start,
		WindowEnd:    report.Window.End,
		Fallback:     report.Fallback(),
		MessageCount: report.MessageCount,
	})
	if err != nil {
		p.logger.Error("Failed to record invocation", zap.Error(err))
	}
}
