package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vaultQuote/internal/storage"
	"vaultQuote/internal/storage/postgres"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh token and vault state, optionally on an interval",
		RunE:  runRefresh,
	}

	cmd.Flags().Duration("interval", 0, "refresh interval, 0 means refresh once")
	cmd.Flags().String("out", "", "snapshot JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshot history")

	return cmd
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	r, _, logger, err := loadRouter(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	interval, _ := cmd.Flags().GetDuration("interval")
	out, _ := cmd.Flags().GetString("out")
	pgDSN, _ := cmd.Flags().GetString("pg-dsn")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks []storage.Storage
	if out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(out))
	}
	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	refreshOnce := func() error {
		if err := r.RefreshAll(ctx); err != nil {
			return err
		}
		snap := r.Snapshot()
		for _, sink := range sinks {
			if err := sink.PutSnapshot(ctx, snap); err != nil {
				return err
			}
		}
		if len(sinks) == 0 {
			return json.NewEncoder(os.Stdout).Encode(snap)
		}
		return nil
	}

	if err := refreshOnce(); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := refreshOnce(); err != nil {
				logger.Warn("refresh cycle failed", zap.Error(err))
			}
		}
	}
}
