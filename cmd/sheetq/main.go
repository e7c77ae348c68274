// Package main is the entry point for the sheetq CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sheetq/internal/board"
	"sheetq/internal/cli"
	"sheetq/internal/commands"
	"sheetq/internal/config"
)

func main() {
	// Optional .env for SHEETQ_CONFIG_DIR and friends; absence is fine.
	_ = godotenv.Load()

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create board factory
	factory := func(ctx context.Context, cfg *config.Config) (board.Client, error) {
		settings, err := cfg.LoadSettings()
		if err != nil {
			return nil, err
		}
		return board.NewSheetsClient(ctx, cfg.ResolveCredentials(settings))
	}

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
