package ledger

import (
	"context"
	"fmt"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/store"
)

// EventPublisher receives a notification after a snapshot has been persisted.
// Publishing is best effort; a failure never rolls back the write.
type EventPublisher interface {
	PublishSnapshotWritten(ctx context.Context, assetID, periodKey string, value float64) error
}

// Service exposes the ledger operations over a month-record store. The zero
// owner string on read operations means "everyone".
type Service struct {
	kv      store.KV
	events  EventPublisher
	members []string
	ids     idSource
	now     func() time.Time
}

// NewService builds a ledger service. events may be nil when no broker is
// configured. members, when non-empty, is the closed set of owners accepted
// on writes; core.OwnerJoint is always accepted.
func NewService(kv store.KV, events EventPublisher, members ...string) *Service {
	return &Service{
		kv:      kv,
		events:  events,
		members: members,
		now:     time.Now,
	}
}

// ListAssets returns the aggregated current view, optionally filtered to one
// owner. Joint assets are included for every owner.
func (s *Service) ListAssets(ctx context.Context, owner string) ([]core.Asset, error) {
	assets, err := s.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	return core.FilterByOwner(assets, owner), nil
}

// NetWorth computes total net worth and the per-asset breakdown for the
// aggregated view, optionally filtered to one owner.
func (s *Service) NetWorth(ctx context.Context, owner string) (core.NetWorth, error) {
	assets, err := s.ListAssets(ctx, owner)
	if err != nil {
		return core.NetWorth{}, err
	}
	return core.ComputeNetWorth(assets), nil
}

func (s *Service) checkOwner(owner string) error {
	if owner == "" || owner == core.OwnerJoint || len(s.members) == 0 {
		return nil
	}
	for _, m := range s.members {
		if m == owner {
			return nil
		}
	}
	return fmt.Errorf("owner %q: %w", owner, core.ErrUnknownOwner)
}
