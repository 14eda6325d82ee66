package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"tldr/internal/format"
	"tldr/internal/pipeline"
)

// Poster sends messages to a channel. *slack.Client implements it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Runner executes one summary request. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// Handler turns chat commands into pipeline runs and replies.
type Handler struct {
	poster Poster
	runner Runner
	prefix string
	logger *zap.Logger
}

func NewHandler(poster Poster, runner Runner, prefix string, logger *zap.Logger) *Handler {
	return &Handler{
		poster: poster,
		runner: runner,
		prefix: prefix,
		logger: logger.Named("bot"),
	}
}

// Invocation is one parsed command, ready to execute.
type Invocation struct {
	Command   Command
	Arg       string
	ChannelID string
	UserID    string
}

// FromMessage parses a channel message. Bot posts, edits and other
// subtyped events are ignored.
func (h *Handler) FromMessage(ev *slackevents.MessageEvent) (Invocation, bool) {
	if ev.BotID != "" || ev.SubType != "" {
		return Invocation{}, false
	}
	cmd, arg := ParseCommand(ev.Text, h.prefix)
	if cmd == CommandNone {
		return Invocation{}, false
	}
	return Invocation{Command: cmd, Arg: arg, ChannelID: ev.Channel, UserID: ev.User}, true
}

// FromSlashCommand parses a /tldr or /tldrhelp request.
func (h *Handler) FromSlashCommand(sc slack.SlashCommand) (Invocation, bool) {
	cmd, arg := ParseSlashCommand(sc.Command, sc.Text)
	if cmd == CommandNone {
		return Invocation{}, false
	}
	return Invocation{Command: cmd, Arg: arg, ChannelID: sc.ChannelID, UserID: sc.UserID}, true
}

// Execute runs one invocation to completion, replying in its channel.
func (h *Handler) Execute(ctx context.Context, inv Invocation) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Recovered from panic in command handler",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			h.post(ctx, inv.ChannelID, slack.MsgOptionText(format.ErrorText, false))
		}
	}()

	h.logger.Info("Received command",
		zap.Int("command", int(inv.Command)),
		zap.String("arg", inv.Arg),
		zap.String("channel_id", inv.ChannelID),
		zap.String("user_id", inv.UserID))

	switch inv.Command {
	case CommandHelp:
		h.help(ctx, inv.ChannelID)
	case CommandTLDR:
		if inv.Arg == "" {
			h.help(ctx, inv.ChannelID)
			return
		}
		h.tldr(ctx, inv)
	}
}

func (h *Handler) help(ctx context.Context, channelID string) {
	h.post(ctx, channelID,
		slack.MsgOptionText("TLDR Bot Help", false),
		slack.MsgOptionBlocks(format.HelpBlocks(h.prefix)...))
}

func (h *Handler) tldr(ctx context.Context, inv Invocation) {
	h.post(ctx, inv.ChannelID, slack.MsgOptionText(format.ProcessingText, false))

	report, err := h.runner.Run(ctx, pipeline.Request{
		ChannelID: inv.ChannelID,
		UserID:    inv.UserID,
		Phrase:    inv.Arg,
		OnSummarizing: func() {
			h.post(ctx, inv.ChannelID, slack.MsgOptionText(format.GeneratingText, false))
		},
	})
	if err != nil {
		h.logger.Error("Error in tldr command",
			zap.String("channel_id", inv.ChannelID),
			zap.String("phrase", inv.Arg),
			zap.Error(err))
		h.post(ctx, inv.ChannelID, slack.MsgOptionText(format.ErrorText, false))
		return
	}

	if report.Empty {
		text := format.EmptyText(report)
		if report.Fallback() {
			text = fmt.Sprintf("%s\n%s", text, format.FallbackNote(report))
		}
		h.post(ctx, inv.ChannelID, slack.MsgOptionText(text, false))
		return
	}

	h.post(ctx, inv.ChannelID,
		slack.MsgOptionText(format.SummaryText(report), false),
		slack.MsgOptionBlocks(format.SummaryBlocks(report)...))
}

func (h *Handler) post(ctx context.Context, channelID string, options ...slack.MsgOption) {
	if _, _, err := h.poster.PostMessageContext(ctx, channelID, options...); err != nil {
		h.logger.Error("Failed to post message", zap.String("channel_id", channelID), zap.Error(err))
	}
}
