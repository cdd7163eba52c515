// Package ledger is the monthly asset ledger engine: it reads and writes
// per-period month records through the store port, merges them into the
// canonical current asset view, and derives snapshot returns.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"nestegg/internal/core"
	"nestegg/internal/store"
)

// Aggregate merges every month record into one asset per id. Records are
// folded in ascending period order, so a later period's version of an asset
// replaces the earlier one wholesale; an asset that stops being reported
// carries forward from its last appearance. A record that cannot be read or
// decoded is skipped with a warning rather than failing the merge.
func (s *Service) Aggregate(ctx context.Context) ([]core.Asset, error) {
	keys, err := s.kv.ListKeys(ctx, store.RecordPrefix)
	if err != nil {
		return nil, fmt.Errorf("list month records: %w", err)
	}

	byID := make(map[string]core.Asset)
	for _, key := range store.SortedRecordKeys(keys) {
		rec, err := s.readRecord(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable month record",
				"key", key, "error", err)
			continue
		}
		for _, a := range rec.Assets {
			a.Normalize()
			byID[a.ID] = a
		}
	}

	assets := make([]core.Asset, 0, len(byID))
	for _, a := range byID {
		assets = append(assets, a)
	}
	// Ids are issued from a monotonic source, so sorting by id keeps the
	// output deterministic and in creation order.
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

func (s *Service) readRecord(ctx context.Context, key string) (*core.MonthRecord, error) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec core.MonthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// loadRecord fetches the record for a period, reporting store.ErrNotFound
// when the period has never been written.
func (s *Service) loadRecord(ctx context.Context, p core.Period) (*core.MonthRecord, error) {
	return s.readRecord(ctx, store.RecordKey(p))
}

func (s *Service) saveRecord(ctx context.Context, rec *core.MonthRecord) error {
	p, err := rec.Period()
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.PeriodKey, err)
	}
	if err := s.kv.Set(ctx, store.RecordKey(p), data); err != nil {
		return fmt.Errorf("write record %s: %w", rec.PeriodKey, err)
	}
	return nil
}
