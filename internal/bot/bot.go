package bot

import (
	"context"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// eventSource is the part of *socketmode.Client the bot drives.
type eventSource interface {
	RunContext(ctx context.Context) error
	Ack(req socketmode.Request, payload ...interface{})
}

// Bot receives commands over Socket Mode and runs each one in its own goroutine.
type Bot struct {
	source  eventSource
	events  <-chan socketmode.Event
	handler *Handler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func New(client *socketmode.Client, handler *Handler, logger *zap.Logger) *Bot {
	return &Bot{
		source:  client,
		events:  client.Events,
		handler: handler,
		logger:  logger.Named("socketmode"),
	}
}

// Run serves events until ctx is cancelled, then waits for running commands.
func (b *Bot) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- b.source.RunContext(ctx)
	}()

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case evt := <-b.events:
			if inv, ok := b.route(evt); ok {
				b.dispatch(ctx, inv)
			}
		}
	}
}

// route acknowledges envelopes that need it and returns the command they carry.
func (b *Bot) route(evt socketmode.Event) (Invocation, bool) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		b.logger.Info("Connected to Slack")
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("Socket Mode connection failed, retrying")
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || evt.Request == nil {
			return Invocation{}, false
		}
		b.source.Ack(*evt.Request)
		if eventsAPIEvent.Type != slackevents.CallbackEvent {
			return Invocation{}, false
		}
		if ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			return b.handler.FromMessage(ev)
		}
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok || evt.Request == nil {
			return Invocation{}, false
		}
		b.source.Ack(*evt.Request)
		return b.handler.FromSlashCommand(cmd)
	}
	return Invocation{}, false
}

func (b *Bot) dispatch(ctx context.Context, inv Invocation) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handler.Execute(ctx, inv)
	}()
}
