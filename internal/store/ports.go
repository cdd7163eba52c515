// Package store defines the month-record persistence port and its key
// scheme. The ledger engine is written once against the KV interface; the
// file, sqlite, gcs and memory subpackages are interchangeable backends.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"nestegg/internal/core"
)

// RecordPrefix namespaces month records within a backend.
const RecordPrefix = "assets_"

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// KV is the storage port. Values are opaque byte payloads; callers own the
// encoding. Backends may block on I/O; all methods accept a context. No
// atomicity is promised across calls: a read during a write may observe
// either state, and the last write observed by the backend wins.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// RecordKey derives the storage key for a period's month record.
func RecordKey(p core.Period) string {
	return RecordPrefix + p.Key()
}

// PeriodFromKey recovers the period from a record key.
func PeriodFromKey(key string) (core.Period, error) {
	return core.ParsePeriod(strings.TrimPrefix(key, RecordPrefix))
}

// SortedRecordKeys filters keys down to well-formed month-record keys and
// returns them in ascending chronological order. Malformed keys are dropped;
// the caller decides whether dropping deserves a warning.
func SortedRecordKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, RecordPrefix) {
			continue
		}
		if _, err := PeriodFromKey(k); err != nil {
			continue
		}
		out = append(out, k)
	}
	// Zero-padded period keys sort lexicographically in chronological order.
	sort.Strings(out)
	return out
}
