package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// API is the part of *slack.Client used for reading channels.
type API interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

var _ API = (*slack.Client)(nil)
