package format

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tldr/internal/commontypes"
	"tldr/internal/openai"
	"tldr/internal/pipeline"
)

func testReport() *pipeline.Report {
	return &pipeline.Report{
		Phrase: "last hour",
		Window: commontypes.TimeWindow{
			Start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		},
		MessageCount: 5,
		Summary:      "**Release** is on track.",
	}
}

func TestSummaryBlocks(t *testing.T) {
	blocks := SummaryBlocks(testReport())
	require.Len(t, blocks, 4)

	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok)
	assert.Contains(t, header.Text.Text, "Channel TLDR Summary")

	body, ok := blocks[1].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*Release* is on track.", body.Text.Text)
	assert.Equal(t, slack.MarkdownType, body.Text.Type)

	fields := blocks[3].(*slack.SectionBlock).Fields
	require.Len(t, fields, 3)
	assert.Contains(t, fields[0].Text, "From: 2024-01-01 10:00 UTC\nTo: 2024-01-01 11:00 UTC")
	assert.Contains(t, fields[1].Text, "5")
	assert.Contains(t, fields[2].Text, "last hour")
}

func TestSummaryBlocks_LongSummaryAndFallback(t *testing.T) {
	r := testReport()
	r.Summary = strings.Repeat("word ", 1500)
	r.FallbackReason = fmt.Errorf("%w: invalid JSON", openai.ErrUnresolved)

	blocks := SummaryBlocks(r)
	sections := 0
	for _, b := range blocks[1:] {
		if s, ok := b.(*slack.SectionBlock); ok && s.Text != nil {
			assert.LessOrEqual(t, len(s.Text.Text), sectionTextLimit)
			sections++
		}
	}
	assert.Equal(t, 3, sections)

	ctx, ok := blocks[len(blocks)-1].(*slack.ContextBlock)
	require.True(t, ok)
	note := ctx.ContextElements.Elements[0].(*slack.TextBlockObject)
	assert.Contains(t, note.Text, `couldn't understand "last hour"`)
}

func TestEmptyText(t *testing.T) {
	assert.Equal(t, ":x: No messages found between 2024-01-01 10:00 UTC and 2024-01-01 11:00 UTC", EmptyText(testReport()))
}

func TestHelpBlocks(t *testing.T) {
	blocks := HelpBlocks("!")
	require.Len(t, blocks, 5)
	examples := blocks[3].(*slack.SectionBlock).Text.Text
	for _, e := range HelpExamples {
		assert.Contains(t, examples, "`!tldr "+e+"`")
	}
}
