package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/store"
	"nestegg/internal/store/memory"
)

var testClock = time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, members ...string) (*Service, *memory.Store) {
	t.Helper()
	kv := memory.New()
	s := NewService(kv, nil, members...)
	s.now = func() time.Time { return testClock }
	return s, kv
}

func writeRecord(t *testing.T, kv store.KV, p core.Period, assets ...core.Asset) {
	t.Helper()
	rec := core.NewMonthRecord(p, testClock)
	rec.Assets = assets
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(context.Background(), store.RecordKey(p), data); err != nil {
		t.Fatal(err)
	}
}

func asset(id, name, owner string, value float64) core.Asset {
	return core.Asset{
		ID: id, Name: name, Owner: owner, CurrentValue: value,
		MonthlySnapshots: []core.SnapshotEntry{},
	}
}

func TestAggregateLaterPeriodWins(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	june := core.Period{Year: 2025, Month: 6}
	july := core.Period{Year: 2025, Month: 7}
	writeRecord(t, kv, june,
		asset("1", "Stocks", "Anurag", 100),
		asset("2", "Cash", "Joint", 50))
	// July re-reports Stocks with a new owner and value; Cash goes
	// unreported and must carry forward from June.
	writeRecord(t, kv, july,
		asset("1", "Stocks", "Joint", 120))

	assets, err := s.Aggregate(ctx)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("got %d assets", len(assets))
	}
	if assets[0].ID != "1" || assets[0].CurrentValue != 120 || assets[0].Owner != "Joint" {
		t.Fatalf("stocks not replaced wholesale: %+v", assets[0])
	}
	if assets[1].ID != "2" || assets[1].CurrentValue != 50 {
		t.Fatalf("cash not carried forward: %+v", assets[1])
	}
}

func TestAggregateIsReadOnlyAndRepeatable(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	writeRecord(t, kv, core.Period{Year: 2025, Month: 7}, asset("1", "Stocks", "", 100))

	first, err := s.Aggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Aggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].CurrentValue != second[0].CurrentValue {
		t.Fatalf("aggregation not repeatable: %v vs %v", first, second)
	}
	if first[0].Owner != core.OwnerJoint {
		t.Fatalf("blank owner not defaulted: %q", first[0].Owner)
	}

	keys, _ := kv.ListKeys(ctx, store.RecordPrefix)
	if len(keys) != 1 {
		t.Fatalf("aggregation wrote to the store: %v", keys)
	}
}

func TestAggregateSkipsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	writeRecord(t, kv, core.Period{Year: 2025, Month: 6}, asset("1", "Stocks", "Joint", 100))
	if err := kv.Set(ctx, "assets_2025_07", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	assets, err := s.Aggregate(ctx)
	if err != nil {
		t.Fatalf("aggregate should survive a corrupt record: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != "1" {
		t.Fatalf("got %+v", assets)
	}
}

func TestAggregateEmptyStore(t *testing.T) {
	s, _ := newTestService(t)
	assets, err := s.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 0 {
		t.Fatalf("got %+v", assets)
	}
}

func TestAddSnapshotComputesReturn(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	july := core.Period{Year: 2025, Month: 7}
	august := core.Period{Year: 2025, Month: 8}
	writeRecord(t, kv, july, asset("1", "Gold", "Joint", 170000))

	applied, err := s.AddSnapshot(ctx, august, "1", 180000, nil)
	if err != nil {
		t.Fatalf("add snapshot: %v", err)
	}
	if !applied {
		t.Fatal("snapshot not applied")
	}

	rec := readRecord(t, kv, august)
	if len(rec.Assets) != 1 {
		t.Fatalf("got %d assets in new record", len(rec.Assets))
	}
	a := rec.Assets[0]
	if a.CurrentValue != 180000 {
		t.Fatalf("current value %v", a.CurrentValue)
	}
	if len(a.MonthlySnapshots) != 1 {
		t.Fatalf("got %d snapshots", len(a.MonthlySnapshots))
	}
	if got := a.MonthlySnapshots[0].ReturnPercentage; got != 5.88 {
		t.Fatalf("return percentage %v, want 5.88", got)
	}
	if a.Name != "Gold" {
		t.Fatalf("identity not seeded from history: %+v", a)
	}
}

func TestAddSnapshotNoBaseline(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	// Asset exists only two periods back, so the immediately preceding
	// period has no value to compare against.
	writeRecord(t, kv, core.Period{Year: 2025, Month: 6}, asset("1", "Gold", "Joint", 100))

	applied, err := s.AddSnapshot(ctx, core.Period{Year: 2025, Month: 8}, "1", 110, nil)
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}
	rec := readRecord(t, kv, core.Period{Year: 2025, Month: 8})
	if got := rec.Assets[0].MonthlySnapshots[0].ReturnPercentage; got != 0 {
		t.Fatalf("return percentage %v, want 0", got)
	}
}

func TestAddSnapshotOverride(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	p := core.Period{Year: 2025, Month: 8}
	prev := p.Previous()
	writeRecord(t, kv, prev, asset("1", "Gold", "Joint", 170000))

	override := 2.5
	applied, err := s.AddSnapshot(ctx, p, "1", 180000, &override)
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}
	rec := readRecord(t, kv, p)
	if got := rec.Assets[0].MonthlySnapshots[0].ReturnPercentage; got != 2.5 {
		t.Fatalf("return percentage %v, want override 2.5", got)
	}
}

func TestAddSnapshotUnknownAssetIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)

	applied, err := s.AddSnapshot(ctx, core.Period{Year: 2025, Month: 8}, "no-such-id", 100, nil)
	if err != nil {
		t.Fatalf("unknown asset must not error: %v", err)
	}
	if applied {
		t.Fatal("snapshot for unknown asset was applied")
	}
	keys, _ := kv.ListKeys(ctx, store.RecordPrefix)
	if len(keys) != 0 {
		t.Fatalf("no-op wrote records: %v", keys)
	}
}

func TestAddSnapshotRejectsBadValues(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	p := core.Period{Year: 2025, Month: 8}

	cases := []struct {
		value    float64
		override *float64
	}{
		{math.NaN(), nil},
		{math.Inf(1), nil},
		{100, func() *float64 { v := math.NaN(); return &v }()},
	}
	for i, c := range cases {
		if _, err := s.AddSnapshot(ctx, p, "1", c.value, c.override); !errors.Is(err, core.ErrInvalidValue) {
			t.Fatalf("case %d: got %v want ErrInvalidValue", i, err)
		}
	}
	if _, err := s.AddSnapshot(ctx, p, "", 100, nil); !errors.Is(err, core.ErrEmptyAssetID) {
		t.Fatalf("got %v want ErrEmptyAssetID", err)
	}
}

func TestAddSnapshotAppendsWithinMonth(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	p := core.Period{Year: 2025, Month: 8}
	writeRecord(t, kv, p.Previous(), asset("1", "Gold", "Joint", 100))

	for _, v := range []float64{110, 120} {
		if applied, err := s.AddSnapshot(ctx, p, "1", v, nil); err != nil || !applied {
			t.Fatalf("value %v: applied=%v err=%v", v, applied, err)
		}
	}
	rec := readRecord(t, kv, p)
	snaps := rec.Assets[0].MonthlySnapshots
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	if snaps[0].Value != 110 || snaps[1].Value != 120 {
		t.Fatalf("snapshots out of order: %+v", snaps)
	}
	if rec.Assets[0].CurrentValue != 120 {
		t.Fatalf("current value %v", rec.Assets[0].CurrentValue)
	}
	// Both returns measure against July's 100, not against each other.
	if snaps[1].ReturnPercentage != 20 {
		t.Fatalf("second return %v, want 20", snaps[1].ReturnPercentage)
	}
}

func TestCreateAsset(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t, "Anurag", "Nidhi")
	p := core.Period{Year: 2025, Month: 8}

	created, err := s.CreateAsset(ctx, p, "Stocks", "", "Zerodha", 50000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
	if created.Owner != core.OwnerJoint {
		t.Fatalf("owner %q, want default Joint", created.Owner)
	}
	if len(created.MonthlySnapshots) != 1 || created.MonthlySnapshots[0].ReturnPercentage != 0 {
		t.Fatalf("initial snapshot wrong: %+v", created.MonthlySnapshots)
	}

	second, err := s.CreateAsset(ctx, p, "Stocks", "Nidhi", "", 1000)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.ID == created.ID {
		t.Fatal("ids not unique under a fixed clock")
	}

	rec := readRecord(t, kv, p)
	if len(rec.Assets) != 2 {
		t.Fatalf("got %d assets", len(rec.Assets))
	}
}

func TestCreateAssetValidation(t *testing.T) {
	s, _ := newTestService(t, "Anurag", "Nidhi")
	ctx := context.Background()
	p := core.Period{Year: 2025, Month: 8}

	if _, err := s.CreateAsset(ctx, p, "", "Anurag", "", 10); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("got %v want ErrEmptyName", err)
	}
	if _, err := s.CreateAsset(ctx, p, "Stocks", "Stranger", "", 10); !errors.Is(err, core.ErrUnknownOwner) {
		t.Fatalf("got %v want ErrUnknownOwner", err)
	}
	if _, err := s.CreateAsset(ctx, p, "Stocks", "Anurag", "", math.Inf(-1)); !errors.Is(err, core.ErrInvalidValue) {
		t.Fatalf("got %v want ErrInvalidValue", err)
	}
}

func TestListAssetsAndNetWorth(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestService(t)
	writeRecord(t, kv, core.Period{Year: 2025, Month: 7},
		asset("1", "Stocks", "Anurag", 100),
		asset("2", "Cash", "Joint", 50),
		asset("3", "PPF", "Nidhi", 25))

	mine, err := s.ListAssets(ctx, "Anurag")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != "1" {
		t.Fatalf("owner filter: %+v", mine)
	}

	nw, err := s.NetWorth(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if nw.TotalNetWorth != 175 {
		t.Fatalf("total %v", nw.TotalNetWorth)
	}
	if nw.Breakdown["Cash"] != 50 {
		t.Fatalf("breakdown %v", nw.Breakdown)
	}
}

type recordingPublisher struct {
	assetIDs []string
	fail     bool
}

func (r *recordingPublisher) PublishSnapshotWritten(_ context.Context, assetID, _ string, _ float64) error {
	r.assetIDs = append(r.assetIDs, assetID)
	if r.fail {
		return errors.New("broker down")
	}
	return nil
}

func TestAddSnapshotPublishesEvent(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	pub := &recordingPublisher{fail: true}
	s := NewService(kv, pub)
	s.now = func() time.Time { return testClock }

	p := core.Period{Year: 2025, Month: 8}
	writeRecord(t, kv, p.Previous(), asset("1", "Gold", "Joint", 100))

	// A failing publisher must not fail the write.
	applied, err := s.AddSnapshot(ctx, p, "1", 110, nil)
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}
	if len(pub.assetIDs) != 1 || pub.assetIDs[0] != "1" {
		t.Fatalf("published %v", pub.assetIDs)
	}
}

func TestIDSourceMonotonic(t *testing.T) {
	var g idSource
	now := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := g.Next(now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func readRecord(t *testing.T, kv store.KV, p core.Period) *core.MonthRecord {
	t.Helper()
	data, err := kv.Get(context.Background(), store.RecordKey(p))
	if err != nil {
		t.Fatalf("read record %s: %v", p.Key(), err)
	}
	var rec core.MonthRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	return &rec
}
