package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/rentwise/api/internal/config"
	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/seed"
)

func main() {
	file := flag.String("file", "seed/reference.yaml", "Path to the seed YAML file")
	dryRun := flag.Bool("dry-run", false, "Validate the file without writing")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	doc, err := seed.Load(*file)
	if err != nil {
		slog.Error("failed to load seed file", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *dryRun {
		slog.Info("seed file valid", slog.String("file", *file), slog.Int("records", len(doc.Records())))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	counts, err := seed.Apply(ctx, db, doc)
	if err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		slog.Info("seeded", slog.String("table", table), slog.Int("rows", counts[table]))
	}
}
