// Command agrolens-ingest loads metric panel and lineage CSV files into
// the metric store, creating the schema when missing.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/agrolens/agrolens/internal/ingest"
	"github.com/agrolens/agrolens/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		dsn         = flag.String("dsn", os.Getenv("AGROLENS_METRICS_DSN"), "postgres DSN (default $AGROLENS_METRICS_DSN)")
		panelPath   = flag.String("panel", "", "path to metric panel CSV")
		lineagePath = flag.String("lineage", "", "path to lineage CSV")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("ingest")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dsn == "" {
		log.Error(ctx, "no DSN given; set -dsn or AGROLENS_METRICS_DSN")
		os.Exit(2)
	}
	if *panelPath == "" && *lineagePath == "" {
		log.Error(ctx, "nothing to do; pass -panel and/or -lineage")
		os.Exit(2)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", *dsn)
	if err != nil {
		log.Error(ctx, "failed to connect to store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := ingest.EnsureSchema(ctx, db); err != nil {
		log.Error(ctx, "failed to ensure schema", logger.Error(err))
		os.Exit(1)
	}

	if *panelPath != "" {
		n, err := loadPanel(ctx, db, *panelPath)
		if err != nil {
			log.Error(ctx, "panel load failed", logger.String("path", *panelPath), logger.Error(err))
			os.Exit(1)
		}
		log.Info(ctx, "panel loaded", logger.String("path", *panelPath), logger.Int("rows", n))
	}

	if *lineagePath != "" {
		n, err := loadLineage(ctx, db, *lineagePath)
		if err != nil {
			log.Error(ctx, "lineage load failed", logger.String("path", *lineagePath), logger.Error(err))
			os.Exit(1)
		}
		log.Info(ctx, "lineage loaded", logger.String("path", *lineagePath), logger.Int("rows", n))
	}
}

func loadPanel(ctx context.Context, db *sqlx.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := ingest.ReadPanel(f)
	if err != nil {
		return 0, err
	}
	return ingest.WritePanel(ctx, db, rows)
}

func loadLineage(ctx context.Context, db *sqlx.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := ingest.ReadLineage(f)
	if err != nil {
		return 0, err
	}
	return ingest.WriteLineage(ctx, db, rows)
}
