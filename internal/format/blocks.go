package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"

	"tldr/internal/commontypes"
	"tldr/internal/pipeline"
)

const (
	// TimeLayout is how windows are shown to users.
	TimeLayout = "2006-01-02 15:04 UTC"

	sectionTextLimit = 3000
	fieldTextLimit   = 2000

	ProcessingText = ":thinking_face: Processing your request..."
	GeneratingText = ":memo: Generating summary..."
	ErrorText      = ":x: An error occurred while generating the summary. Please try again later."
)

// HelpExamples are the sample phrases shown by the help command.
var HelpExamples = []string{
	"last hour",
	"yesterday",
	"last 3 hours",
	"this morning",
	"last week",
	"today",
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

// WindowText renders a window as two "From/To" lines.
func WindowText(w commontypes.TimeWindow) string {
	return fmt.Sprintf("From: %s\nTo: %s", w.Start.UTC().Format(TimeLayout), w.End.UTC().Format(TimeLayout))
}

// EmptyText is the notice for a window without human messages.
func EmptyText(r *pipeline.Report) string {
	return fmt.Sprintf(":x: No messages found between %s and %s",
		r.Window.Start.UTC().Format(TimeLayout), r.Window.End.UTC().Format(TimeLayout))
}

// FallbackNote tells the user their phrase was replaced by the last hour.
func FallbackNote(r *pipeline.Report) string {
	return fmt.Sprintf(":warning: I couldn't understand \"%s\", so this covers the last hour.", r.Phrase)
}

// SummaryText is the notification text sent alongside the summary blocks.
func SummaryText(r *pipeline.Report) string {
	return fmt.Sprintf("Channel TLDR Summary (%d messages)", r.MessageCount)
}

// SummaryBlocks lays out a finished report.
func SummaryBlocks(r *pipeline.Report) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plain(":clipboard: Channel TLDR Summary")),
	}
	for _, chunk := range SplitText(MarkdownToMrkdwn(r.Summary), sectionTextLimit) {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(chunk), nil, nil))
	}

	fields := []*slack.TextBlockObject{
		mrkdwn(truncate("*:date: Time Frame*\n"+WindowText(r.Window), fieldTextLimit)),
		mrkdwn("*:speech_balloon: Messages Analyzed*\n" + strconv.Itoa(r.MessageCount)),
		mrkdwn(truncate("*:bar_chart: Original Request*\n"+r.Phrase, fieldTextLimit)),
	}
	blocks = append(blocks, slack.NewDividerBlock(), slack.NewSectionBlock(nil, fields, nil))

	if r.Fallback() {
		blocks = append(blocks, slack.NewContextBlock("", mrkdwn(FallbackNote(r))))
	}
	return blocks
}

// HelpBlocks describes how to use the bot.
func HelpBlocks(prefix string) []slack.Block {
	var examples strings.Builder
	for _, e := range HelpExamples {
		fmt.Fprintf(&examples, "• `%stldr %s`\n", prefix, e)
	}

	return []slack.Block{
		slack.NewHeaderBlock(plain(":robot_face: TLDR Bot Help")),
		slack.NewSectionBlock(mrkdwn("Generate concise summaries of channel messages using natural language time requests."), nil, nil),
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*:memo: Usage*\n`%stldr <time request>` or `/tldr <time request>`", prefix)), nil, nil),
		slack.NewSectionBlock(mrkdwn("*:alarm_clock: Time Request Examples*\n"+strings.TrimRight(examples.String(), "\n")), nil, nil),
		slack.NewSectionBlock(mrkdwn("*:information_source: How it works*\nThe bot uses AI to parse your natural language request, fetches messages from the specified time frame, and generates a concise summary of the conversation."), nil, nil),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	chunks := SplitText(s, max-len("…"))
	return chunks[0] + "…"
}
