// Package main provides a CLI for loading the ingredient dictionary from a
// CSV file (one "name,measurement_unit" pair per line) into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ladleapp/ladle-server/internal/config"
	"github.com/ladleapp/ladle-server/internal/logger"
	"github.com/ladleapp/ladle-server/internal/service"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// LoadConfig parses the shared flags; the CSV path is the one positional.
	if flag.NArg() != 1 {
		return fmt.Errorf("usage: seed [flags] <ingredients.csv>")
	}
	csvPath := flag.Arg(0)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	store, err := sqlite.Open(cfg.DatabasePath(), log.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	catalog := service.NewCatalogService(store, log.Logger)
	added, err := catalog.ImportCSV(context.Background(), f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	log.Info("Ingredient import completed", "file", csvPath, "added", added)
	return nil
}
