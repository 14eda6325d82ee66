package slack

import (
	"context"
	"errors"

	"github.com/slack-go/slack"
)

type fakeAPI struct {
	pages        []*slack.GetConversationHistoryResponse
	historyErr   error
	historyCalls []*slack.GetConversationHistoryParameters

	users     map[string]*slack.User
	userCalls map[string]int

	channelPages [][]slack.Channel
	channelCalls int
}

func (f *fakeAPI) GetConversationHistoryContext(_ context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	f.historyCalls = append(f.historyCalls, params)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.pages[len(f.historyCalls)-1], nil
}

func (f *fakeAPI) GetUserInfoContext(_ context.Context, id string) (*slack.User, error) {
	if f.userCalls == nil {
		f.userCalls = map[string]int{}
	}
	f.userCalls[id]++
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("user_not_found")
}

func (f *fakeAPI) GetConversationsContext(_ context.Context, _ *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	page := f.channelPages[f.channelCalls]
	f.channelCalls++
	next := ""
	if f.channelCalls < len(f.channelPages) {
		next = "next"
	}
	return page, next, nil
}

func historyPage(hasMore bool, cursor string, msgs ...slack.Message) *slack.GetConversationHistoryResponse {
	resp := &slack.GetConversationHistoryResponse{HasMore: hasMore, Messages: msgs}
	resp.ResponseMetaData.NextCursor = cursor
	return resp
}

func userMsg(ts, user, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{Timestamp: ts, User: user, Text: text}}
}

func channel(id, name string, private bool) slack.Channel {
	ch := slack.Channel{}
	ch.ID = id
	ch.Name = name
	ch.IsPrivate = private
	return ch
}
