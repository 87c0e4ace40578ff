package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/kiosk-listings/internal/config"
	"github.com/pauljones0/kiosk-listings/internal/fetcher"
	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/notifier"
	"github.com/pauljones0/kiosk-listings/internal/paginator"
	"github.com/pauljones0/kiosk-listings/internal/scheduler"
	"github.com/pauljones0/kiosk-listings/internal/server"
	"github.com/pauljones0/kiosk-listings/internal/storage"
)

const (
	alertTimeout  = 30 * time.Second
	mirrorBackoff = time.Second
)

func main() {
	slog.Info("Starting kiosk listing server...")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

func run(cfg *config.Config) error {
	// Graceful shutdown on SIGTERM/SIGINT
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store := listing.New(cfg.AuctionID)
	f := fetcher.New(fetcher.Options{
		BaseURL:       cfg.APIBaseURL,
		XappToken:     cfg.XappToken,
		Timeout:       cfg.FetchTimeout,
		Retries:       cfg.FetchRetries,
		RatePerSecond: cfg.FetchRate,
	})
	p := paginator.New(f, store, paginator.Options{PageSize: cfg.PageSize, MaxPages: cfg.MaxPages})

	n := notifier.New(cfg.DiscordWebhookURL)
	tracker := notifier.NewTracker()
	sched := scheduler.New(p, scheduler.Options{
		OnResult: func(res scheduler.Result) {
			alert, ok := tracker.Observe(res)
			if !ok || !n.Enabled() {
				return
			}
			go func() {
				alertCtx, cancel := context.WithTimeout(context.Background(), alertTimeout)
				defer cancel()
				if err := n.Send(alertCtx, cfg.AuctionID, alert); err != nil {
					slog.Error("Failed to send Discord alert", "error", err)
				}
			}()
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ProjectID != "" {
		mirror, err := storage.New(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("initializing Firestore client: %w", err)
		}
		defer mirror.Close()

		updates, unsubscribe := store.Subscribe()
		g.Go(func() error {
			defer unsubscribe()
			storage.MirrorUpdates(gctx, updates, mirror, mirrorBackoff)
			return nil
		})
	}

	if err := sched.Start(gctx, cfg.SyncInterval); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(store, sched).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Listening on port", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		sched.Wait()
		return nil
	})

	return g.Wait()
}
