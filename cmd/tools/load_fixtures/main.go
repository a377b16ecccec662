package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/david/opportunity-ranker/internal/config"
	"github.com/david/opportunity-ranker/internal/db"
	"github.com/david/opportunity-ranker/internal/models"
)

func main() {
	path := flag.String("file", "", "YAML file with an `opportunities:` list")
	flag.Parse()

	if *path == "" {
		log.Fatal("Please provide a fixture file using -file flag")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *path, err)
	}
	defer f.Close()

	records, err := models.LoadRecordsYAML(f)
	if err != nil {
		log.Fatalf("Failed to read fixtures: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	n, err := db.NewStore(pool).UpsertRecords(ctx, records)
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}
	log.Printf("Loaded %d opportunities from %s", n, *path)
}
