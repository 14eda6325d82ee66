package slack

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCache struct {
	known     map[string]string
	lookupErr error
	upserts   map[string]string
}

func (c *fakeCache) LookupChannel(_ context.Context, name string) (string, bool, error) {
	if c.lookupErr != nil {
		return "", false, c.lookupErr
	}
	id, ok := c.known[name]
	return id, ok, nil
}

func (c *fakeCache) UpsertChannel(_ context.Context, slackID, name string) (int64, error) {
	if c.upserts == nil {
		c.upserts = map[string]string{}
	}
	c.upserts[name] = slackID
	return int64(len(c.upserts)), nil
}

func TestResolveChannelID_CacheHit(t *testing.T) {
	api := &fakeAPI{}
	cache := &fakeCache{known: map[string]string{"general": "C1"}}

	id, err := ResolveChannelID(context.Background(), api, cache, "general", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "C1", id)
	assert.Zero(t, api.channelCalls)
}

func TestResolveChannelID_SlackLookupUpserts(t *testing.T) {
	api := &fakeAPI{channelPages: [][]slack.Channel{
		{channel("C1", "general", false)},
		{channel("C2", "random", false), channel("C3", "ops", true)},
	}}
	cache := &fakeCache{}

	id, err := ResolveChannelID(context.Background(), api, cache, "random", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "C2", id)
	assert.Equal(t, 2, api.channelCalls)
	assert.Equal(t, map[string]string{"random": "C2"}, cache.upserts)
}

func TestResolveChannelID_NoCache(t *testing.T) {
	api := &fakeAPI{channelPages: [][]slack.Channel{{channel("C1", "general", false)}}}

	_, err := ResolveChannelID(context.Background(), api, nil, "missing", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveChannelID_CacheError(t *testing.T) {
	cache := &fakeCache{lookupErr: errors.New("connection refused")}
	_, err := ResolveChannelID(context.Background(), &fakeAPI{}, cache, "general", zap.NewNop())
	require.Error(t, err)
}

func TestListChannels(t *testing.T) {
	api := &fakeAPI{channelPages: [][]slack.Channel{
		{channel("C2", "random", false)},
		{channel("C3", "ops", true), channel("C1", "general", false)},
	}}

	var buf bytes.Buffer
	require.NoError(t, ListChannels(context.Background(), api, &buf))
	assert.Equal(t, "Available Channels:\n"+
		"- general (ID: C1, Type: Public)\n"+
		"- ops (ID: C3, Type: Private)\n"+
		"- random (ID: C2, Type: Public)\n", buf.String())
}
