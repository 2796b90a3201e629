package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/ashureev/cinemabot/internal/api"
	"github.com/ashureev/cinemabot/internal/bot"
	"github.com/ashureev/cinemabot/internal/feed"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the ops HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepository(repo)

	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	logger.Info("Database connected", "path", cfg.DBPath)

	convLog, err := bot.NewConversationLogger(bot.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, afero.NewOsFs(), logger)
	if err != nil {
		return fmt.Errorf("init conversation logger: %w", err)
	}
	defer func() {
		if err := convLog.Close(); err != nil {
			logger.Error("Failed to close conversation logger", "error", err)
		}
	}()

	hub := feed.NewHub(logger)
	defer hub.Close()

	resolver := newResolver()

	tg, err := gotgbot.NewBot(cfg.TelegramToken, nil)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}

	handler := bot.NewHandler(repo, resolver, bot.NewTelegramMessenger(tg), bot.Options{
		MirrorURLTemplate: cfg.Catalog.MirrorURLTemplate,
		ConversationLog:   convLog,
		Feed:              hub,
		Logger:            logger,
	})

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(_ *gotgbot.Bot, ectx *ext.Context, err error) ext.DispatcherAction {
			logger.Error("Update handling failed", "update_id", ectx.UpdateId, "error", err)
			return ext.DispatcherActionNoop
		},
		MaxRoutines: cfg.BotMaxRoutines,
	})
	bot.Register(ctx, dispatcher, handler)
	updater := ext.NewUpdater(dispatcher, nil)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return runPoller(ctx, tg, updater)
	})
	if cfg.Port != "" {
		if !cfg.OpsAPIEnabled() {
			logger.Warn("OPS_TOKEN is empty, ops server serves /health only")
		}
		router := api.NewRouter(api.NewHandler(repo, resolver, hub), api.RouterOptions{
			OpsToken:       cfg.OpsToken,
			AllowedOrigins: cfg.OpsAllowedOrigins,
			Logger:         logger,
		})
		p.Go(func(ctx context.Context) error {
			return runOpsServer(ctx, router)
		})
	} else {
		logger.Info("Ops HTTP server disabled (PORT is empty)")
	}

	err = p.Wait()
	logger.Info("Shutdown complete")
	return err
}

func runPoller(ctx context.Context, tg *gotgbot.Bot, updater *ext.Updater) error {
	err := updater.StartPolling(tg, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	logger.Info("Bot polling started", "username", tg.Username)

	<-ctx.Done()

	logger.Info("Stopping bot poller")
	if err := updater.Stop(); err != nil {
		return fmt.Errorf("stop polling: %w", err)
	}
	return nil
}

func runOpsServer(ctx context.Context, handler http.Handler) error {
	// WebSocket feed connections are long-lived, so there is no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down ops server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}
