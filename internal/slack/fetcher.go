package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"tldr/internal/commontypes"
)

const historyPageSize = 200 // max allowed by Slack

// System events that are not part of the conversation.
var skippedSubtypes = map[string]bool{
	"channel_join":    true,
	"channel_leave":   true,
	"channel_topic":   true,
	"channel_purpose": true,
	"channel_name":    true,
	"channel_archive": true,
	"pinned_item":     true,
}

// Fetcher reads channel history within a time window.
type Fetcher struct {
	api    API
	logger *zap.Logger
}

func NewFetcher(api API, logger *zap.Logger) *Fetcher {
	return &Fetcher{api: api, logger: logger.Named("slack")}
}

// FetchWindow returns every message posted to channelID inside window, oldest first.
func (f *Fetcher) FetchWindow(ctx context.Context, channelID string, window commontypes.TimeWindow) ([]commontypes.PlatformMessage, error) {
	f.logger.Info("Fetching messages from Slack",
		zap.String("channel_id", channelID),
		zap.Time("oldest", window.Start),
		zap.Time("latest", window.End))

	authors := newAuthorCache(f.api, f.logger)
	var newestFirst []commontypes.PlatformMessage
	skipped := 0
	cursor := ""
	for {
		history, err := f.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    FormatTimestamp(window.Start),
			Latest:    FormatTimestamp(window.End),
			Limit:     historyPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get Slack conversation history for %s: %w", channelID, err)
		}

		f.logger.Debug("Received message batch",
			zap.String("channel_id", channelID),
			zap.Int("count", len(history.Messages)),
			zap.Bool("has_more", history.HasMore))

		for _, msg := range history.Messages {
			if skippedSubtypes[msg.SubType] {
				skipped++
				continue
			}
			ts, err := ParseTimestamp(msg.Timestamp)
			if err != nil {
				f.logger.Warn("Skipping message with unparseable timestamp",
					zap.String("timestamp", msg.Timestamp), zap.Error(err))
				skipped++
				continue
			}
			newestFirst = append(newestFirst, authors.toPlatformMessage(ctx, msg, ts))
		}

		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = history.ResponseMetaData.NextCursor
	}

	// Slack pages newest first.
	messages := make([]commontypes.PlatformMessage, len(newestFirst))
	for i, m := range newestFirst {
		messages[len(newestFirst)-1-i] = m
	}

	f.logger.Info("Fetched messages",
		zap.String("channel_id", channelID),
		zap.Int("messages", len(messages)),
		zap.Int("skipped", skipped))
	return messages, nil
}

// authorCache resolves user IDs to display names for the length of one fetch.
type authorCache struct {
	api    API
	logger *zap.Logger
	users  map[string]*slack.User
}

func newAuthorCache(api API, logger *zap.Logger) *authorCache {
	return &authorCache{api: api, logger: logger, users: make(map[string]*slack.User)}
}

func (c *authorCache) toPlatformMessage(ctx context.Context, msg slack.Message, ts time.Time) commontypes.PlatformMessage {
	pm := commontypes.PlatformMessage{
		Timestamp:   ts,
		Text:        msg.Text,
		AuthorID:    msg.User,
		AuthorIsBot: msg.BotID != "" || msg.SubType == "bot_message",
	}

	if pm.AuthorIsBot {
		pm.AuthorName = msg.Username
		if pm.AuthorName == "" && msg.BotProfile != nil {
			pm.AuthorName = msg.BotProfile.Name
		}
		if pm.AuthorName == "" {
			pm.AuthorName = msg.BotID
		}
		return pm
	}

	user := c.lookup(ctx, msg.User)
	if user == nil {
		pm.AuthorName = msg.User
		return pm
	}
	pm.AuthorIsBot = user.IsBot
	pm.AuthorName = displayName(user)
	return pm
}

func (c *authorCache) lookup(ctx context.Context, id string) *slack.User {
	if id == "" {
		return nil
	}
	if u, ok := c.users[id]; ok {
		return u
	}
	u, err := c.api.GetUserInfoContext(ctx, id)
	if err != nil {
		c.logger.Warn("Couldn't look up message author", zap.String("user_id", id), zap.Error(err))
		u = nil
	}
	c.users[id] = u
	return u
}

func displayName(u *slack.User) string {
	switch {
	case u.Profile.DisplayName != "":
		return u.Profile.DisplayName
	case u.RealName != "":
		return u.RealName
	case u.Name != "":
		return u.Name
	}
	return u.ID
}
