package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"avito-watch/internal/classifier"
	"avito-watch/internal/config"
	"avito-watch/internal/httpapi"
	"avito-watch/internal/providers/avito"
	"avito-watch/internal/scheduler"
	"avito-watch/internal/services/watching"
	"avito-watch/internal/telegram"
)

const verifyTimeout = 10 * time.Second

type Builder struct {
	cfg *config.Config

	client   *http.Client
	fetcher  watching.Fetcher
	notifier watching.Notifier
	waiter   watching.Waiter
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{cfg: cfg}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithFetcher(fetcher watching.Fetcher) BuilderOption {
	return func(b *Builder) {
		b.fetcher = fetcher
	}
}

func WithNotifier(notifier watching.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithWaiter(waiter watching.Waiter) BuilderOption {
	return func(b *Builder) {
		b.waiter = waiter
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}
	cfg := b.cfg

	app := &App{Config: cfg}

	if b.client == nil {
		b.client = &http.Client{}
	}

	if b.fetcher == nil {
		b.fetcher = avito.NewFetcher(b.client,
			avito.WithUserAgent(cfg.UserAgent),
			avito.WithAcceptLanguage(cfg.AcceptLanguage),
			avito.WithTimeout(cfg.FetchTimeout()),
			avito.WithCooldown(cfg.RateLimitCooldown()),
		)
	}

	rooms := classifier.New(cfg.TargetRooms)

	if b.notifier == nil {
		b.notifier = b.buildNotifier(ctx, rooms.Target())
	}
	app.Notifier = b.notifier

	if b.waiter == nil {
		sched, err := scheduler.New(cfg.PollCron, cfg.PollInterval())
		if err != nil {
			return nil, err
		}
		b.waiter = sched
	}

	extractor := avito.NewExtractor(rooms, cfg.PriceRange())

	options := []watching.Option{
		watching.WithWaiter(b.waiter),
		watching.WithNotifyInterval(cfg.NotifyInterval()),
	}
	if b.notifier != nil {
		options = append(options, watching.WithNotifier(b.notifier))
	}
	app.Watcher = watching.NewService(cfg.TargetURL, b.fetcher, extractor, options...)

	if cfg.HTTPPort != "" {
		handler := httpapi.NewHandler(app.Watcher)
		app.Server = &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	log.Info().
		Str("rooms", rooms.String()).
		Int64("min_price", cfg.MinPrice).
		Int64("max_price", cfg.MaxPrice).
		Int("poll_interval_seconds", cfg.PollIntervalSeconds).
		Str("poll_cron", cfg.PollCron).
		Msg("watcher configured")

	return app, nil
}

// buildNotifier returns nil when Telegram is not usable; the watcher then
// runs in log-only mode instead of failing startup.
func (b *Builder) buildNotifier(ctx context.Context, rooms int) watching.Notifier {
	cfg := b.cfg
	if !cfg.TelegramConfigured() {
		log.Warn().Msg("telegram credentials missing, notifications disabled")
		return nil
	}

	sender := telegram.NewSender(cfg.TelegramToken, cfg.TelegramChat,
		telegram.WithThreadID(cfg.TelegramThreadID),
		telegram.WithRooms(rooms),
	)

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	if err := sender.Verify(verifyCtx); err != nil {
		log.Warn().Err(err).Msg("telegram is not reachable, notifications disabled")
		return nil
	}

	log.Info().Msg("telegram connected")
	return sender
}
