package slack

import (
	"time"

	"tldr/internal/commontypes"
)

// Normalize drops messages written by automated accounts and reduces the
// rest to timestamp, author and text, keeping their order.
func Normalize(messages []commontypes.PlatformMessage) []commontypes.NormalizedMessage {
	out := make([]commontypes.NormalizedMessage, 0, len(messages))
	for _, m := range messages {
		if m.AuthorIsBot {
			continue
		}
		out = append(out, commontypes.NormalizedMessage{
			Timestamp:         m.Timestamp.UTC().Format(time.RFC3339),
			Content:           m.Text,
			AuthorDisplayName: m.AuthorName,
		})
	}
	return out
}
