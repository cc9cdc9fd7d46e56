package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"termchat/client"
	"termchat/moderation"
	"termchat/repositories"
	"termchat/runtime"
	"termchat/runtime/workers"
	"termchat/server"
)

const usage = "usage: termchat <server|client>"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the process lifecycle, and
// centralizes error reporting so every defer (database close included)
// executes before the program exits.
func run() error {
	// A missing .env file is fine: the environment wins anyway.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		return fmt.Errorf("%s", usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "server":
		return runServer(ctx)
	case "client":
		return runClient(ctx)
	default:
		return fmt.Errorf("unknown role %q, %s", os.Args[1], usage)
	}
}

func runServer(ctx context.Context) error {
	// 1. Configuration & Logger
	var config ServerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message log (BadgerDB) & search index (bluge)
	// Synchronous writes: an acknowledged append must survive a crash.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithSyncWrites(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Moderation
	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("loading censored words: %w", err)
	}
	replacement, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(censored.Words, replacement)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}
	log.Info("Moderation ready", "words", len(censored.Words), "languages", censored.Languages)

	// 4. Core components
	registry := runtime.NewRegistry()
	repository := repositories.NewMessageRepository(db, index, log, config.SearchLimit)
	logWriter := workers.NewLogWriter(repository, config.BufferSize, log)
	router := runtime.NewRouter(log, registry, repository, &moderator, logWriter.Requests(), config.HistoryLimit)

	// 5. Supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval).Add(logWriter)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 6. Serve until the context ends
	srv := server.NewServer(log, config.Host, config.Port, registry, router, config.ConnectionBufferSize)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	supervisor.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")
	return nil
}

func runClient(ctx context.Context) error {
	var config ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	return client.NewClient(log, config.ServerURL).Run(ctx)
}
