package storage

import (
	"context"
	"io"
)

// ObjectStorage is the minimal object-store surface the avatar feature
// needs. Keys are opaque; the backend owns bucket naming.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Storage fronts an ObjectStorage backend so callers never touch a
// concrete SDK client.
type Storage struct {
	objects ObjectStorage
}

func NewStorage(objects ObjectStorage) *Storage {
	return &Storage{objects: objects}
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.objects.EnsureBucket(ctx)
}

// Put stores an object under key, overwriting any previous content.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.objects.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for the object stored under key.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.objects.Get(ctx, key)
}

// Delete removes the object stored under key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.objects.Delete(ctx, key)
}
