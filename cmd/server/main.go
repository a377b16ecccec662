package main

import (
	"context"
	"log"

	"github.com/david/opportunity-ranker/internal/api"
	"github.com/david/opportunity-ranker/internal/config"
	"github.com/david/opportunity-ranker/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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

	if cfg.JWTSecret == "" {
		log.Print("JWT_SECRET is not set; settings routes will reject every request")
	}

	srv := api.NewServer(db.NewStore(pool), api.Options{
		CORSOrigins:     cfg.CORSOrigins,
		JWTSecret:       []byte(cfg.JWTSecret),
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
