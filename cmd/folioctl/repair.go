// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/core/relation"
	"github.com/taibuivan/folio/internal/core/series"
	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/config"
	pgstore "github.com/taibuivan/folio/internal/platform/postgres"
	redisstore "github.com/taibuivan/folio/internal/platform/redis"
	"github.com/taibuivan/folio/pkg/uuid"
)

// repairer is the slice of [relation.Engine] the repair command drives.
type repairer interface {
	RepairSeries(ctx context.Context, seriesID string) (*series.RepairReport, error)
	RepairAll(ctx context.Context) (*relation.RepairSummary, error)
}

func newRepairCommand() *cobra.Command {
	var seriesID string

	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Reconcile series membership and recount categories",
		Long: `Walks every series, drops references to missing images, re-attaches
orphaned members and resets invalid covers, then recounts every category.

Every step is idempotent, so the command is safe to re-run after a partial
cascade failure. The outcome is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			engine, cleanup, err := openEngine(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer cleanup()

			return runRepair(cmd.Context(), engine, seriesID, cmd.OutOrStdout())
		},
	}

	repairCmd.Flags().StringVar(&seriesID, "series", "", "repair a single series by id")
	return repairCmd
}

// runRepair performs one pass and writes its outcome to out.
func runRepair(ctx context.Context, engine repairer, seriesID string, out io.Writer) error {
	var result any

	if seriesID != "" {
		normalized := uuid.Normalize(seriesID)
		if normalized == "" {
			return fmt.Errorf("--series must be a UUID, got %q", seriesID)
		}

		report, err := engine.RepairSeries(ctx, normalized)
		if err != nil {
			return err
		}
		result = report
	} else {
		summary, err := engine.RepairAll(ctx)
		if err != nil {
			return err
		}
		result = summary
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// openEngine wires the relationship engine over PostgreSQL.
//
// With CACHE_DRIVER=redis the engine invalidates the shared cache the API
// reads from. A memory cache lives inside the API process and cannot be
// reached; its entries age out within CACHE_TTL.
func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*relation.Engine, func(), error) {
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.PoolOptions{MaxConns: 2, MinConns: 1}, logger)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){pool.Close}
	cleanup := func() {
		for index := len(closers) - 1; index >= 0; index-- {
			closers[index]()
		}
	}

	var readCache cache.Cache = cache.Nop{}
	if cfg.CacheDriver == config.CacheDriverRedis {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })

		readCache, err = cache.NewRedis(client, cache.RedisOptions{DefaultTTL: cfg.CacheTTL, Logger: logger})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	} else {
		logger.Warn("repair_cache_unreachable", slog.Duration("stale_for_at_most", cfg.CacheTTL))
	}

	engine := relation.NewEngine(relation.Options{
		Images:     image.NewPostgresRepository(pool),
		Series:     series.NewPostgresRepository(pool),
		Categories: category.NewPostgresRepository(pool),
		Transactor: pgstore.NewTransactor(pool),
		Cache:      readCache,
		Logger:     logger,
	})

	return engine, cleanup, nil
}
