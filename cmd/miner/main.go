package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/blockmarket/miner/internal/api"
	"github.com/blockmarket/miner/internal/config"
	"github.com/blockmarket/miner/internal/events"
	"github.com/blockmarket/miner/internal/loader"
	"github.com/blockmarket/miner/internal/matcher"
	"github.com/blockmarket/miner/internal/report"
	"github.com/blockmarket/miner/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	runID := uuid.New()
	started := time.Now()
	slog.Info("miner starting", "run_id", runID, "data_dir", cfg.DataDir)

	ctx := context.Background()

	messages, err := loader.Load(cfg.DataDir, slog.Default())
	if err != nil {
		slog.Error("failed to load messages", "error", err)
		os.Exit(1)
	}

	m := matcher.New(slog.Default())
	transactions := m.Match(messages)
	slog.Info("matching complete",
		"messages", len(messages),
		"transactions", len(transactions),
	)

	if err := report.WriteCSV(cfg.OutputCSV, transactions); err != nil {
		slog.Error("failed to write report", "path", cfg.OutputCSV, "error", err)
		os.Exit(1)
	}
	slog.Info("report written", "path", cfg.OutputCSV)

	// Postgres archive (optional — the CSV is the primary artifact).
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		for _, tx := range transactions {
			if err := db.WriteTransaction(ctx, runID, tx); err != nil {
				slog.Error("failed to archive transaction", "id", tx.ID, "error", err)
			}
		}
		slog.Info("transactions archived", "count", len(transactions))
	} else {
		slog.Warn("DATABASE_URL not set — skipping archive")
	}

	// NATS events (optional).
	if cfg.NatsURL != "" {
		nc, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		for _, tx := range transactions {
			if err := nc.Publish(events.SubjectTransactionMined, tx); err != nil {
				slog.Warn("failed to publish transaction", "id", tx.ID, "error", err)
			}
		}
		if err := nc.Publish(events.SubjectRunCompleted, map[string]any{
			"run_id":       runID.String(),
			"messages":     len(messages),
			"transactions": len(transactions),
			"duration_ms":  time.Since(started).Milliseconds(),
			"output":       cfg.OutputCSV,
		}); err != nil {
			slog.Warn("failed to publish run summary", "error", err)
		}
		slog.Info("events published", "count", len(transactions))
	} else {
		slog.Warn("NATS_URL not set — skipping event publishing")
	}

	slog.Info("run complete",
		"run_id", runID,
		"transactions", len(transactions),
		"duration", time.Since(started).Round(time.Millisecond).String(),
	)

	// Stay up serving results when asked; otherwise exit.
	if cfg.Serve {
		srv := api.NewServer(cfg.Port, runID, transactions, db)
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
