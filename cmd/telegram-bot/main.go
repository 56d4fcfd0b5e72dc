package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"treecare/internal/app"
	"treecare/internal/config"
	"treecare/internal/logging"
	"treecare/internal/telegram"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "telegram-bot:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage, metrics and services
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer application.Close()

	if n, err := application.CleanupMetrics(ctx, 0); err != nil {
		log.Warn("startup metrics cleanup failed", zap.Error(err))
	} else if n > 0 {
		log.Info("pruned old metrics", zap.Int64("removed", n))
	}

	// 3. Telegram
	api, err := telegram.Connect(cfg.Telegram, log)
	if err != nil {
		return err
	}
	bot := telegram.NewBot(api, application, log.Named("telegram"))

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 4. Serve until signalled
	srv := &http.Server{
		Addr:              ":" + cfg.Telegram.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("telegram bot server listening", zap.String("port", cfg.Telegram.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	// Let in-flight updates finish before the stores close.
	bot.Wait()

	log.Info("server exiting")
	return nil
}
