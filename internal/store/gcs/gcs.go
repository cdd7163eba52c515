// Package gcs implements the store port over a Google Cloud Storage bucket.
// Each month record is one JSON object under an optional prefix. Credentials
// come from Application Default Credentials.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	appstore "nestegg/internal/store"
)

type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New dials GCS and returns a store rooted at bucket/prefix.
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *Store) object(key string) string {
	return s.prefix + key + ".json"
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, appstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object reader for %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.object(key)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
