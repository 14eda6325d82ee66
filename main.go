package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tldr/internal/bot"
	"tldr/internal/config"
	"tldr/internal/email"
	"tldr/internal/format"
	"tldr/internal/openai"
	"tldr/internal/pipeline"
	tldrslack "tldr/internal/slack"
	"tldr/internal/store"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func main() {
	listFlag := flag.Bool("list", false, "List available channels")
	channelFlag := flag.String("channel", "", "Summarize this channel once and exit")
	sinceFlag := flag.String("since", "last hour", "Natural language time range used with -channel")
	emailFlag := flag.Bool("email", false, "Also email the -channel summary to EMAIL_TO")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var slackOpts []slack.Option
	if cfg.SlackAppToken != "" {
		slackOpts = append(slackOpts, slack.OptionAppLevelToken(cfg.SlackAppToken))
	}
	slackAPI := slack.New(cfg.SlackToken, slackOpts...)

	if *listFlag {
		if err := tldrslack.ListChannels(ctx, slackAPI, os.Stdout); err != nil {
			logger.Fatal("Failed to list channels", zap.Error(err))
		}
		return
	}

	// The store is optional; keep the interfaces nil when it is not configured.
	var (
		auditor pipeline.Auditor
		cache   tldrslack.ChannelCache
	)
	if cfg.DatabaseEnabled() {
		st, err := store.Open(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		auditor, cache = st, st
	}

	svc := openai.NewService(goopenai.NewClient(cfg.OpenAIToken), cfg.OpenAIModel, logger)
	p := pipeline.New(svc, tldrslack.NewFetcher(slackAPI, logger), svc, auditor, logger)

	if *channelFlag != "" {
		if err := runOnce(ctx, cfg, slackAPI, cache, p, *channelFlag, *sinceFlag, *emailFlag, logger); err != nil {
			logger.Fatal("Failed to summarize channel", zap.String("channel", *channelFlag), zap.Error(err))
		}
		return
	}

	if err := cfg.ValidateBot(); err != nil {
		logger.Fatal("Cannot start bot", zap.Error(err))
	}

	client := socketmode.New(slackAPI)
	handler := bot.NewHandler(slackAPI, p, cfg.CommandPrefix, logger)
	logger.Info("Starting TLDR bot", zap.String("model", cfg.OpenAIModel), zap.String("prefix", cfg.CommandPrefix))
	if err := bot.New(client, handler, logger).Run(ctx); err != nil {
		logger.Fatal("Bot stopped", zap.Error(err))
	}
	logger.Info("Bot shut down")
}

func runOnce(ctx context.Context, cfg *config.Config, api tldrslack.API, cache tldrslack.ChannelCache,
	p *pipeline.Pipeline, channelName, since string, sendEmail bool, logger *zap.Logger) error {
	channelID, err := tldrslack.ResolveChannelID(ctx, api, cache, channelName, logger)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, pipeline.Request{ChannelID: channelID, Phrase: since})
	if err != nil {
		return err
	}

	if report.Fallback() {
		fmt.Println(format.FallbackNote(report))
	}
	if report.Empty {
		fmt.Println(format.EmptyText(report))
		return nil
	}

	meta := fmt.Sprintf("#%s\n%s\nMessages analyzed: %d", channelName, format.WindowText(report.Window), report.MessageCount)
	fmt.Printf("\n%s\n\nSummary:\n%s\n", meta, report.Summary)

	if !sendEmail {
		return nil
	}
	if !cfg.EmailEnabled() {
		logger.Warn("Email requested but SMTP_HOST, SMTP_PORT or EMAIL_TO is not set")
		return nil
	}
	sender := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom, cfg.EmailTo, logger)
	subject := fmt.Sprintf("Slack Channel TLDR - #%s - %s", channelName, report.Window.End.Format("2006-01-02"))
	return sender.SendSummary(subject, meta, report.Summary)
}
