package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// SeedIfEmpty copies every month record from src into dst, but only when dst
// holds no month records at all. Re-running against a non-empty target is a
// no-op, which makes backend migration idempotent. Once seeded, the target is
// authoritative; divergence between source and target is never reconciled.
//
// Returns the number of records copied.
func SeedIfEmpty(ctx context.Context, src, dst KV) (int, error) {
	existing, err := dst.ListKeys(ctx, RecordPrefix)
	if err != nil {
		return 0, fmt.Errorf("list target keys: %w", err)
	}
	if len(SortedRecordKeys(existing)) > 0 {
		slog.InfoContext(ctx, "Target store already seeded, skipping",
			"records", len(existing))
		return 0, nil
	}

	keys, err := src.ListKeys(ctx, RecordPrefix)
	if err != nil {
		return 0, fmt.Errorf("list source keys: %w", err)
	}
	keys = SortedRecordKeys(keys)
	if len(keys) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		g.Go(func() error {
			value, err := src.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("read source record %s: %w", key, err)
			}
			if err := dst.Set(gctx, key, value); err != nil {
				return fmt.Errorf("write target record %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Seeded target store", "records", len(keys))
	return len(keys), nil
}
