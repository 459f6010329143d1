package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"f1livetiming/pkg/bot"
	"f1livetiming/pkg/config"
	"f1livetiming/pkg/feed"
	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/locator"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/notification"
	"f1livetiming/pkg/pubsub"
	"f1livetiming/pkg/render"
	"f1livetiming/pkg/settings"
	"f1livetiming/pkg/tracker"
	"f1livetiming/pkg/webserver"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var console bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Follow the live session and serve its classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracker(cmd.Context(), ctx, cmd.OutOrStdout(), console)
		},
	}
	cmd.Flags().BoolVar(&console, "console", false, "Print the classification table on every broadcast tick")
	return cmd
}

func runTracker(cmdCtx context.Context, cc *commandContext, out io.Writer, console bool) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cc.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := cc.logger()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance is running (lock %s)", cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release lock", "error", err)
		}
	}()

	client, err := cc.client(logger)
	if err != nil {
		return err
	}
	health := pubsub.NewPubSub[model.Health]()
	defer health.Close()
	sessions := pubsub.NewPubSub[model.Session]()
	defer sessions.Close()

	loc := locator.New(client, locator.Options{
		DefaultDuration: cfg.Session.DefaultDuration(),
		Lookahead:       cfg.Session.Lookahead(),
	}, logger)
	connector := feed.NewConnector(client, feed.Options{
		StreamURL:      cfg.Provider.StreamURL,
		MaxAttempts:    cfg.Feed.MaxAttempts,
		ReconnectDelay: cfg.Feed.ReconnectDelay(),
		ReceiveTimeout: cfg.Feed.ReceiveTimeout(),
		PollInterval:   cfg.Feed.PollInterval(),
		QueueSize:      cfg.Feed.QueueSize,
	}, health, logger)
	tr := tracker.New(loc, connector, sessions, tracker.Options{
		LocateInterval:    cfg.Session.LocateInterval(),
		DefaultDuration:   cfg.Session.DefaultDuration(),
		Stream:            cfg.Provider.StreamURL != "",
		FallbackToPolling: cfg.Feed.FallbackToPolling,
		Store:             lapstore.Options{LapWindow: cfg.Store.LapWindow, StintWindow: cfg.Store.StintWindow},
	}, logger)

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error { return tr.Run(gctx) })
	g.Go(func() error {
		watchHealth(gctx, health, logger)
		return nil
	})

	if cfg.Server.Enabled {
		srv := webserver.NewManager(tr, webserver.Options{
			Address:           cfg.Server.Address,
			BroadcastInterval: cfg.Server.BroadcastInterval(),
		}, logger)
		g.Go(func() error { return srv.Serve(gctx) })
	}

	if cfg.Notifications.Enabled {
		tg, err := newTelegram(cfg, tr, sessions, logger)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		defer tg.close()
		g.Go(func() error {
			tg.notifier.Start(gctx)
			return nil
		})
		g.Go(func() error {
			u := tgbotapi.NewUpdate(0)
			u.Timeout = 60
			updates := tg.api.GetUpdatesChan(u)
			go func() {
				<-gctx.Done()
				tg.api.StopReceivingUpdates()
			}()
			tg.bot.Run(gctx, updates)
			return nil
		})
	}

	if console {
		g.Go(func() error {
			printLoop(gctx, tr, out, cfg.Server.BroadcastInterval(), logger)
			return nil
		})
	}

	logger.Info("f1livetiming started", "provider", cfg.Provider.BaseURL, "stream", cfg.Provider.StreamURL != "", "server", cfg.Server.Enabled, "notifications", cfg.Notifications.Enabled)
	err = g.Wait()
	logger.Info("f1livetiming stopped")
	return err
}

type telegram struct {
	api      *tgbotapi.BotAPI
	store    *settings.Manager
	notifier *notification.Manager
	bot      *bot.Bot
	logger   *slog.Logger
}

func newTelegram(cfg *config.Config, tr *tracker.Tracker, sessions *pubsub.PubSub[model.Session], logger *slog.Logger) (*telegram, error) {
	store, err := settings.NewManager(cfg.Notifications.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramToken)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "account", api.Self.UserName)
	return &telegram{
		api:      api,
		store:    store,
		notifier: notification.NewManager(store, notification.TelegramFactory(api), sessions, logger),
		bot:      bot.New(api, store, tr, logger),
		logger:   logger,
	}, nil
}

func (t *telegram) close() {
	if err := t.store.Close(); err != nil {
		t.logger.Warn("close settings", "error", err)
	}
}

func watchHealth(ctx context.Context, health *pubsub.PubSub[model.Health], logger *slog.Logger) {
	ch := health.Subscribe(feed.HealthTopic)
	defer health.Unsubscribe(feed.HealthTopic, ch)
	for {
		select {
		case <-ctx.Done():
			return
		case h, ok := <-ch:
			if !ok {
				return
			}
			logger.Info("feed health changed", "health", string(h))
		}
	}
}

func printLoop(ctx context.Context, tr *tracker.Tracker, out io.Writer, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := render.Classification(out, tr.State(now)); err != nil {
				logger.Warn("render classification", "error", err)
			}
		}
	}
}
