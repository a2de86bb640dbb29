// Package app is the main cmd app
package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/htol/libman/config"
	"github.com/htol/libman/logger"
	"github.com/htol/libman/repo"
	"github.com/htol/libman/service"
)

func CLI(args []string) int {
	var app appEnv
	if err := app.fromArgs(args); err != nil {
		fmt.Println(err)
		return 2
	}

	if err := app.run(); err != nil {
		logger.Error("Runtime error", "error", err)
		return 1
	}
	return 0
}

type appEnv struct {
	cmd     string
	config  *config.Config
	storage *repo.Repo
	service *service.Service
}

func (app *appEnv) fromArgs(args []string) error {
	fl := flag.NewFlagSet("libman", flag.ContinueOnError)

	// Load default config
	cfg := config.Load()

	// CLI flags override environment variables
	port := cfg.Server.Port
	dbPath := cfg.Database.Path

	fl.IntVar(&port, "p", cfg.Server.Port, "Port number")
	fl.StringVar(&dbPath, "d", cfg.Database.Path, "Path to sqlite database (empty for in-memory)")

	if err := fl.Parse(args); err != nil {
		fl.Usage()
		return err
	}

	if fl.NArg() < 1 {
		return fmt.Errorf("please provide a command to run: serve, seed, stats or init")
	}

	app.cmd = fl.Arg(0)
	app.config = cfg
	app.config.Server.Port = port
	app.config.Database.Path = dbPath

	return nil
}

func (app *appEnv) run() error {
	// Initialize logger
	logger.Init(app.config.LogLevel)

	storage := repo.GetStorageWithConfig(app.config.Database.Path, app.config)
	app.storage = storage
	app.service = service.New(storage)
	ctx := context.Background()

	switch app.cmd {
	case "serve":
		// An in-memory store starts empty on every run, so make the
		// demo server immediately usable.
		if app.config.InMemory() {
			if err := storage.Seed(ctx); err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
		}
		app.serve()
	case "seed":
		defer app.closeStorage()
		if err := storage.Seed(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	case "stats":
		defer app.closeStorage()
		stats, err := app.service.GetStatistics(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return fmt.Errorf("encode statistics: %w", err)
		}
	case "init":
		// Schema creation already happened in GetStorageWithConfig.
		defer app.closeStorage()
	default:
		return fmt.Errorf("unknown command %s", app.cmd)
	}
	return nil
}

func (app *appEnv) closeStorage() {
	if err := app.storage.Close(); err != nil {
		logger.Error("Error closing storage", "error", err)
	}
}
