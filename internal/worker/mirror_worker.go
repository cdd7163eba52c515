// Package worker keeps a replica store in step with the primary. Snapshot
// events drive the hot path; a periodic full mirror backstops lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"nestegg/internal/amqp"
	"nestegg/internal/core"
	"nestegg/internal/store"
)

type MirrorWorker struct {
	primary store.KV
	replica store.KV
}

func NewMirrorWorker(primary, replica store.KV) *MirrorWorker {
	return &MirrorWorker{primary: primary, replica: replica}
}

// HandleSnapshotEvent copies the month record named by the event from the
// primary to the replica. The event's value is informational only; the
// primary is always re-read so the replica converges on the latest state
// regardless of delivery order.
func (w *MirrorWorker) HandleSnapshotEvent(ctx context.Context, msg *amqp.SnapshotWrittenMessage) error {
	p, err := core.ParsePeriod(msg.PeriodKey)
	if err != nil {
		// A bad period key will never become processable; drop it.
		slog.WarnContext(ctx, "Dropping event with bad period key",
			"eventId", msg.EventID, "periodKey", msg.PeriodKey, "error", err)
		return nil
	}

	if err := w.mirrorRecord(ctx, store.RecordKey(p)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Mirrored month record",
		"eventId", msg.EventID,
		"assetId", msg.AssetID,
		"period", msg.PeriodKey)
	return nil
}

// MirrorAll copies every primary month record to the replica. This is the
// backup mechanism for lost events and also serves as the startup catch-up.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	keys, err := w.primary.ListKeys(ctx, store.RecordPrefix)
	if err != nil {
		return fmt.Errorf("list primary records: %w", err)
	}
	keys = store.SortedRecordKeys(keys)
	if len(keys) == 0 {
		slog.InfoContext(ctx, "No month records to mirror")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		g.Go(func() error {
			return w.mirrorRecord(gctx, key)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Full mirror completed", "records", len(keys))
	return nil
}

func (w *MirrorWorker) mirrorRecord(ctx context.Context, key string) error {
	value, err := w.primary.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read primary record %s: %w", key, err)
	}
	if err := w.replica.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write replica record %s: %w", key, err)
	}
	return nil
}
