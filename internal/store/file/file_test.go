package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"nestegg/internal/store"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := s.Get(ctx, "assets_2025_08"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing key: got %v want ErrNotFound", err)
	}

	payload := []byte(`{"periodKey":"2025_08","assets":[]}`)
	if err := s.Set(ctx, "assets_2025_08", payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "assets_2025_08")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %s", got)
	}
}

func TestFileStoreListKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, key := range []string{"assets_2025_07", "assets_2025_08"} {
		if err := s.Set(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	// Non-JSON files and foreign names are not keys.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other_2025_08.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	keys, err := s.ListKeys(ctx, store.RecordPrefix)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got keys %v", keys)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "assets_2025_08", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "assets_2025_08", []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "assets_2025_08")
	if err != nil || string(got) != "new" {
		t.Fatalf("got %s, %v", got, err)
	}
}
