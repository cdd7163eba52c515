package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/store"
)

// idSource issues millisecond-timestamp ids that are strictly increasing even
// when two assets are created within the same millisecond.
type idSource struct {
	mu   sync.Mutex
	last int64
}

func (g *idSource) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// CreateAsset registers a new asset in the given period's record, creating
// the record if the period has never been written. The first snapshot is the
// initial value with a zero return, since a brand-new asset has no baseline.
func (s *Service) CreateAsset(ctx context.Context, p core.Period, name, owner, accountDetails string, initialValue float64) (core.Asset, error) {
	if err := p.Validate(); err != nil {
		return core.Asset{}, err
	}
	if name == "" {
		return core.Asset{}, core.ErrEmptyName
	}
	if !core.ValidValue(initialValue) {
		return core.Asset{}, fmt.Errorf("initial value %v: %w", initialValue, core.ErrInvalidValue)
	}
	if err := s.checkOwner(owner); err != nil {
		return core.Asset{}, err
	}

	now := s.now().UTC()
	rec, err := s.loadRecord(ctx, p)
	if errors.Is(err, store.ErrNotFound) {
		rec = core.NewMonthRecord(p, now)
	} else if err != nil {
		return core.Asset{}, err
	}
	asset := core.Asset{
		ID:             s.ids.Next(now),
		Name:           name,
		Owner:          owner,
		AccountDetails: accountDetails,
		CurrentValue:   initialValue,
		MonthlySnapshots: []core.SnapshotEntry{{
			Value:            initialValue,
			ReturnPercentage: 0,
			Date:             now,
		}},
	}
	if err := rec.AddAsset(asset); err != nil {
		return core.Asset{}, err
	}
	rec.LastUpdated = now

	if err := s.saveRecord(ctx, rec); err != nil {
		return core.Asset{}, err
	}
	return rec.Assets[len(rec.Assets)-1], nil
}
