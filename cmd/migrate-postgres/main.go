package main

import (
	"context"
	"fmt"
	"os"

	"github.com/marcelsud/webhook-outbox/config"
	"github.com/marcelsud/webhook-outbox/subscribers"
	"github.com/marcelsud/webhook-outbox/webhook/postgres"
)

/*
migrate-postgres creates the webhook tables and upserts the subscribers
listed in SUBSCRIBERS_FILE. Counters of existing subscribers are kept.

Run with:
  go run cmd/migrate-postgres/main.go

Make sure that:
1. PostgreSQL is running (docker-compose up)
2. .env or the environment carries POSTGRES_DSN or the POSTGRES_* variables
*/

func main() {
	if err := run(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n✅ Migration completed successfully!")
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidatePostgres(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	ctx := context.Background()

	fmt.Println("🔗 Connecting to PostgreSQL...")
	repo, err := postgres.NewRepositoryWithPoolConfig(
		cfg.PostgresConnectionString(),
		cfg.GetPostgresMaxOpenConns(),
		cfg.GetPostgresMaxIdleConns(),
		cfg.GetPostgresConnMaxLifeMinutes(),
	)
	if err != nil {
		return err
	}
	defer repo.Close(ctx)

	if err := repo.CreateTables(ctx); err != nil {
		return err
	}
	fmt.Println("✅ Tables ready")

	subs, err := subscribers.Load(cfg.SubscribersFile)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.SubscribersFile, err)
	}

	fmt.Printf("\n📝 Upserting %d subscriber(s) from %s\n", len(subs), cfg.SubscribersFile)
	for _, s := range subs {
		if err := repo.Save(ctx, s); err != nil {
			return err
		}
		fmt.Printf("   [%s] %s (active=%t)\n", s.ID, s.URL, s.Active)
	}

	return nil
}
