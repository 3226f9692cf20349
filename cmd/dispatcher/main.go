package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courierhq.app/courier/common/id"
	"courierhq.app/courier/common/logger"
	"courierhq.app/courier/common/otel"
	"courierhq.app/courier/core/config"
	"courierhq.app/courier/core/db"
	"courierhq.app/courier/internal/crypto"
	"courierhq.app/courier/internal/dispatcher"
	"courierhq.app/courier/internal/service"
	"courierhq.app/courier/internal/slack"
	"courierhq.app/courier/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeDispatcher)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "courier dispatcher starting",
		"env", cfg.Env,
		"interval", cfg.Dispatch.Interval,
		"batch_size", cfg.Dispatch.BatchSize)

	// Different node ID than the server so generated IDs never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	cipher, err := crypto.New(cfg.CryptoKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize token cipher", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Pool())
	slackClient := slack.NewClient(slack.Config{
		ClientID:     cfg.Slack.ClientID,
		ClientSecret: cfg.Slack.ClientSecret,
		RedirectURI:  cfg.Slack.RedirectURI,
	})
	tokens := service.NewTokenService(stores.Workspaces(), slackClient, cipher)

	d := dispatcher.New(stores.Workspaces(), stores.ScheduledMessages(), tokens, slackClient, dispatcher.Config{
		Interval:  cfg.Dispatch.Interval,
		BatchSize: cfg.Dispatch.BatchSize,
	})

	// Health and metrics only; all API traffic goes to the server binary.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(ctx)
	}()
	go func() {
		slog.InfoContext(ctx, "metrics server starting", "port", cfg.Port)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "metrics server error", "error", err)
		}
	}()

	slog.InfoContext(ctx, "dispatcher initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down dispatcher...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	d.Stop()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "metrics server shutdown error", "error", err)
	}

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "dispatcher error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "dispatcher shutdown complete")
}

const banner = `
 ██████╗ ██████╗ ██╗   ██╗██████╗ ██╗███████╗██████╗     ██████╗ ██╗███████╗██████╗
██╔════╝██╔═══██╗██║   ██║██╔══██╗██║██╔════╝██╔══██╗    ██╔══██╗██║██╔════╝██╔══██╗
██║     ██║   ██║██║   ██║██████╔╝██║█████╗  ██████╔╝    ██║  ██║██║███████╗██████╔╝
██║     ██║   ██║██║   ██║██╔══██╗██║██╔══╝  ██╔══██╗    ██║  ██║██║╚════██║██╔═══╝
╚██████╗╚██████╔╝╚██████╔╝██║  ██║██║███████╗██║  ██║    ██████╔╝██║███████║██║
 ╚═════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝╚══════╝╚═╝  ╚═╝    ╚═════╝ ╚═╝╚══════╝╚═╝
`
