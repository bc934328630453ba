package main

// Run database migrations:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -down

import (
	"context"
	"flag"
	"os"

	"invoice-api/internal/shared/config"
	"invoice-api/internal/shared/storage/db"
	"invoice-api/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.load_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	ctx := context.Background()

	opts, err := db.OptionsFromEnv(db.DefaultMigrateOptions())
	if err != nil {
		telemetry.Error("migrate.options_invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if *down {
		err = db.RollbackMigration(ctx, sqlDB.DB)
	} else {
		err = db.RunMigrations(ctx, sqlDB.DB)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error(), "down": *down})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"down": *down})
}
