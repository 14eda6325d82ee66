package slack

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// ChannelCache stores channel name to Slack ID mappings between runs.
type ChannelCache interface {
	LookupChannel(ctx context.Context, name string) (slackID string, ok bool, err error)
	UpsertChannel(ctx context.Context, slackID, name string) (int64, error)
}

var channelTypes = []string{"public_channel", "private_channel"}

// ResolveChannelID finds the Slack ID for a channel name. The cache, when
// not nil, is consulted first and updated after a Slack lookup.
func ResolveChannelID(ctx context.Context, api API, cache ChannelCache, channelName string, logger *zap.Logger) (string, error) {
	if cache != nil {
		slackID, ok, err := cache.LookupChannel(ctx, channelName)
		if err != nil {
			return "", fmt.Errorf("error querying channel '%s' from database: %w", channelName, err)
		}
		if ok {
			logger.Debug("Found channel in database cache",
				zap.String("channel_name", channelName),
				zap.String("slack_id", slackID))
			return slackID, nil
		}
	}

	logger.Info("Fetching channel list from Slack to find ID", zap.String("target_channel", channelName))
	var slackID string
	err := eachChannel(ctx, api, func(ch slack.Channel) bool {
		if ch.Name == channelName {
			slackID = ch.ID
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if slackID == "" {
		return "", fmt.Errorf("channel '%s' not found via Slack API", channelName)
	}

	if cache != nil {
		if _, err := cache.UpsertChannel(ctx, slackID, channelName); err != nil {
			// The lookup itself succeeded.
			logger.Error("Failed to upsert channel into database",
				zap.String("channel_name", channelName),
				zap.String("slack_id", slackID),
				zap.Error(err))
		}
	}
	return slackID, nil
}

// ListChannels writes every visible channel to w, sorted by name.
func ListChannels(ctx context.Context, api API, w io.Writer) error {
	var chans []slack.Channel
	err := eachChannel(ctx, api, func(ch slack.Channel) bool {
		chans = append(chans, ch)
		return true
	})
	if err != nil {
		return err
	}

	sort.Slice(chans, func(i, j int) bool { return chans[i].Name < chans[j].Name })
	fmt.Fprintln(w, "Available Channels:")
	for _, ch := range chans {
		typeStr := "Public"
		if ch.IsPrivate {
			typeStr = "Private"
		}
		fmt.Fprintf(w, "- %s (ID: %s, Type: %s)\n", ch.Name, ch.ID, typeStr)
	}
	return nil
}

// eachChannel pages through conversations.list until fn returns false.
func eachChannel(ctx context.Context, api API, fn func(slack.Channel) bool) error {
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           1000,
		Types:           channelTypes,
	}
	for {
		channels, nextCursor, err := api.GetConversationsContext(ctx, params)
		if err != nil {
			return fmt.Errorf("error getting conversations from Slack: %w", err)
		}
		for _, ch := range channels {
			if !fn(ch) {
				return nil
			}
		}
		if nextCursor == "" {
			return nil
		}
		params.Cursor = nextCursor
	}
}
