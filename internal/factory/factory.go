// Package factory wires the application components together.
package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ettorre/wordarena/internal/broadcast"
	"github.com/ettorre/wordarena/internal/config"
	"github.com/ettorre/wordarena/internal/dependencies/clock"
	"github.com/ettorre/wordarena/internal/dependencies/random"
	"github.com/ettorre/wordarena/internal/notify"
	"github.com/ettorre/wordarena/internal/protocol"
	"github.com/ettorre/wordarena/internal/rotation"
	"github.com/ettorre/wordarena/internal/scheduler"
	"github.com/ettorre/wordarena/internal/server"
	"github.com/ettorre/wordarena/internal/session"
	"github.com/ettorre/wordarena/internal/storage"
	"github.com/ettorre/wordarena/internal/storage/postgres"
	"github.com/ettorre/wordarena/internal/storage/snapshot"
	"github.com/ettorre/wordarena/internal/translate"
	"github.com/ettorre/wordarena/internal/words"
)

// App contains all wired application components
type App struct {
	Config *config.Config

	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Words        *words.Service
	Sessions     *session.Table
	Rotator      *rotation.Rotator
	Hub          *notify.Hub
	NotifyServer *notify.Server
	Sharer       *broadcast.Sender
	Translator   *translate.Client
	Dispatcher   *protocol.Dispatcher
	Scheduler    *scheduler.Scheduler
	Server       *server.Server
}

// New creates a new application with all dependencies wired.
// onStorageFailure is invoked when a request handler hits an unrecoverable
// storage error; the caller is expected to shut the process down.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, onStorageFailure func(error)) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var store storage.Store
	var err error
	if cfg.UseSnapshotDatabase {
		store, err = snapshot.New(cfg.SnapshotDatabasePath, cfg.AutoCommitDatabase, clk, rnd, logger)
	} else {
		store, err = postgres.New(ctx, cfg.DatabaseURL, cfg.AutoCommitDatabase, clk, rnd, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	wordList, err := words.LoadFile(cfg.WordsFilePath, rnd)
	if err != nil {
		return nil, fmt.Errorf("loading word list: %w", err)
	}

	sharer, err := broadcast.NewSender(cfg.MulticastAddress, cfg.MulticastPort, logger)
	if err != nil {
		return nil, fmt.Errorf("creating share sender: %w", err)
	}

	translator := translate.NewClient(translate.DefaultBaseURL, logger)
	hub := notify.NewHub(logger)
	rotator := rotation.New(store, wordList, translator, hub, clk, cfg.SecretWordTimeout(), logger)

	jobs, err := scheduler.New(rotator, store, !cfg.AutoCommitDatabase, logger)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	sessions := session.NewTable(clk, rnd)
	dispatcher := protocol.NewDispatcher(store, sessions, rotator, wordList, sharer, translator,
		protocol.Config{
			MulticastAddress: cfg.MulticastAddress,
			MulticastPort:    cfg.MulticastPort,
			Debug:            cfg.Debug,
			Verbose:          cfg.Verbose,
		}, onStorageFailure, logger)

	return &App{
		Config:       cfg,
		Store:        store,
		Clock:        clk,
		Random:       rnd,
		Words:        wordList,
		Sessions:     sessions,
		Rotator:      rotator,
		Hub:          hub,
		NotifyServer: notify.NewServer(cfg.NotifyPort, hub, logger),
		Sharer:       sharer,
		Translator:   translator,
		Dispatcher:   dispatcher,
		Scheduler:    jobs,
		Server:       server.New(dispatcher, clk, logger),
	}, nil
}
