package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ettorre/wordarena/internal/config"
	"github.com/ettorre/wordarena/internal/factory"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	flag.Parse()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create application factory. Storage failures inside request handlers
	// are not recoverable, so they take the process down through the same
	// shutdown path as a signal.
	app, err := factory.New(ctx, cfg, logger, func(err error) {
		logger.Error("storage failure, shutting down", slog.String("error", err.Error()))
		cancel()
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	app.Scheduler.Start()

	// Start the notification server in a goroutine
	notifyErrCh := make(chan error, 1)
	go func() {
		notifyErrCh <- app.NotifyServer.Start()
	}()

	// Start the game server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.Start(fmt.Sprintf(":%d", cfg.TCPPort), cfg.WorkerPoolSize)
	}()

	logger.Info("server started",
		slog.Int("tcp_port", cfg.TCPPort),
		slog.Int("notify_port", cfg.NotifyPort))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case err := <-notifyErrCh:
		if err != nil {
			logger.Error("notification server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}
	app.Scheduler.Stop()
	if err := app.NotifyServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("notification shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := app.Store.Flush(shutdownCtx); err != nil {
		logger.Error("storage flush error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := app.Store.Close(shutdownCtx); err != nil {
		logger.Error("storage close error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
