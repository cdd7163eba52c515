package worker

import (
	"context"
	"testing"

	"nestegg/internal/amqp"
	"nestegg/internal/store"
	"nestegg/internal/store/memory"
)

func TestHandleSnapshotEvent(t *testing.T) {
	ctx := context.Background()
	primary := memory.New()
	replica := memory.New()
	w := NewMirrorWorker(primary, replica)

	payload := []byte(`{"periodKey":"2025_08","assets":[]}`)
	if err := primary.Set(ctx, "assets_2025_08", payload); err != nil {
		t.Fatal(err)
	}

	msg := amqp.NewSnapshotWrittenMessage("1", "2025_08", 100)
	if err := w.HandleSnapshotEvent(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := replica.Get(ctx, "assets_2025_08")
	if err != nil {
		t.Fatalf("replica read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("replica holds %s", got)
	}
}

func TestHandleSnapshotEventBadPeriod(t *testing.T) {
	w := NewMirrorWorker(memory.New(), memory.New())
	msg := amqp.NewSnapshotWrittenMessage("1", "garbage", 100)

	// Unparseable period keys are dropped, not requeued forever.
	if err := w.HandleSnapshotEvent(context.Background(), msg); err != nil {
		t.Fatalf("bad period should be dropped silently: %v", err)
	}
}

func TestHandleSnapshotEventMissingRecord(t *testing.T) {
	w := NewMirrorWorker(memory.New(), memory.New())
	msg := amqp.NewSnapshotWrittenMessage("1", "2025_08", 100)

	// The record should exist by the time the event arrives; if it does
	// not, the error propagates so the delivery is requeued.
	if err := w.HandleSnapshotEvent(context.Background(), msg); err == nil {
		t.Fatal("expected error for missing primary record")
	}
}

func TestMirrorAll(t *testing.T) {
	ctx := context.Background()
	primary := memory.New()
	replica := memory.New()
	w := NewMirrorWorker(primary, replica)

	for _, key := range []string{"assets_2025_06", "assets_2025_07", "assets_2025_08"} {
		if err := primary.Set(ctx, key, []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	// Foreign keys in the primary are not month records.
	if err := primary.Set(ctx, "notes", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := w.MirrorAll(ctx); err != nil {
		t.Fatalf("mirror all: %v", err)
	}

	keys, err := replica.ListKeys(ctx, store.RecordPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Fatalf("replica keys %v", keys)
	}
	if _, err := replica.Get(ctx, "notes"); err == nil {
		t.Fatal("foreign key mirrored")
	}
}

func TestMirrorAllEmptyPrimary(t *testing.T) {
	w := NewMirrorWorker(memory.New(), memory.New())
	if err := w.MirrorAll(context.Background()); err != nil {
		t.Fatalf("empty mirror: %v", err)
	}
}
