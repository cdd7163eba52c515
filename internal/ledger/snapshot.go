package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"nestegg/internal/core"
	"nestegg/internal/store"
)

// AddSnapshot records a new value for an asset in the given period. The
// period's record is created on first write. When the asset is not yet in the
// period record its identity is seeded from the aggregated history; an id
// with no history at all makes the call a no-op, reported by applied=false.
//
// The return percentage is taken from override when provided, otherwise
// computed against the value the asset held in the immediately preceding
// period. Without a usable baseline the return is zero.
func (s *Service) AddSnapshot(ctx context.Context, p core.Period, assetID string, value float64, override *float64) (applied bool, err error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	if assetID == "" {
		return false, core.ErrEmptyAssetID
	}
	if !core.ValidValue(value) {
		return false, fmt.Errorf("snapshot value %v: %w", value, core.ErrInvalidValue)
	}
	if override != nil && !core.ValidValue(*override) {
		return false, fmt.Errorf("return override %v: %w", *override, core.ErrInvalidValue)
	}

	now := s.now().UTC()
	rec, err := s.loadRecord(ctx, p)
	if errors.Is(err, store.ErrNotFound) {
		rec = core.NewMonthRecord(p, now)
	} else if err != nil {
		return false, err
	}

	idx := rec.FindAsset(assetID)
	if idx < 0 {
		seeded, ok, err := s.seedFromHistory(ctx, assetID)
		if err != nil {
			return false, err
		}
		if !ok {
			slog.WarnContext(ctx, "Ignoring snapshot for unknown asset",
				"assetId", assetID, "period", p.Key())
			return false, nil
		}
		rec.Assets = append(rec.Assets, seeded)
		idx = len(rec.Assets) - 1
	}

	pct := 0.0
	if override != nil {
		pct = *override
	} else if prev, ok := s.previousValue(ctx, p, assetID); ok && prev > 0 {
		pct = returnPercentage(value, prev)
	}

	asset := &rec.Assets[idx]
	asset.CurrentValue = value
	asset.MonthlySnapshots = append(asset.MonthlySnapshots, core.SnapshotEntry{
		Value:            value,
		ReturnPercentage: pct,
		Date:             now,
	})
	rec.LastUpdated = now

	if err := s.saveRecord(ctx, rec); err != nil {
		return false, err
	}
	s.publishSnapshot(ctx, assetID, p, value)
	return true, nil
}

// seedFromHistory copies an asset's identity out of the aggregated view so a
// period record can start tracking it. Snapshots are not carried over; each
// month record holds only the snapshots taken within that month.
func (s *Service) seedFromHistory(ctx context.Context, assetID string) (core.Asset, bool, error) {
	assets, err := s.Aggregate(ctx)
	if err != nil {
		return core.Asset{}, false, err
	}
	for _, a := range assets {
		if a.ID == assetID {
			a.MonthlySnapshots = []core.SnapshotEntry{}
			return a, true, nil
		}
	}
	return core.Asset{}, false, nil
}

// previousValue looks up the value the asset carried in the record of the
// period immediately before p. A missing record or absent asset yields false.
func (s *Service) previousValue(ctx context.Context, p core.Period, assetID string) (float64, bool) {
	rec, err := s.loadRecord(ctx, p.Previous())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "Cannot read previous period record",
				"period", p.Previous().Key(), "error", err)
		}
		return 0, false
	}
	idx := rec.FindAsset(assetID)
	if idx < 0 {
		return 0, false
	}
	return rec.Assets[idx].CurrentValue, true
}

// returnPercentage is ((new-prev)/prev)*100 rounded to two decimals, computed
// in decimal arithmetic so values like 170000 -> 180000 come out as exactly
// 5.88 rather than a float artifact.
func returnPercentage(newValue, prevValue float64) float64 {
	pct := decimal.NewFromFloat(newValue).
		Sub(decimal.NewFromFloat(prevValue)).
		Div(decimal.NewFromFloat(prevValue)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := pct.Float64()
	return f
}

func (s *Service) publishSnapshot(ctx context.Context, assetID string, p core.Period, value float64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSnapshotWritten(ctx, assetID, p.Key(), value); err != nil {
		slog.WarnContext(ctx, "Failed to publish snapshot event",
			"assetId", assetID, "period", p.Key(), "error", err)
	}
}
