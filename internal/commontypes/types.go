package commontypes

import "time"

// TimeWindow bounds a message query. Both ends are UTC instants.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// PlatformMessage is a raw channel message as delivered by the fetcher.
type PlatformMessage struct {
	Timestamp   time.Time
	Text        string
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
}

// NormalizedMessage is a human-authored message reduced to what the summarizer needs.
type NormalizedMessage struct {
	Timestamp         string // RFC 3339, UTC
	Content           string
	AuthorDisplayName string
}
