package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/migrate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "market-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"command": command, "dir": *dir})
	logg.Info(ctx, "running goose")

	var extra []string
	if flag.NArg() > 1 {
		extra = flag.Args()[1:]
	}

	if err := migrate.Run(ctx, sqlDB, *dir, command, extra...); err != nil {
		return err
	}

	logg.Info(ctx, "done")
	return nil
}
