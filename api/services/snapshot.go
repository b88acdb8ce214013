package services

import (
	"context"
	"errors"
	"time"

	"agendasmart/pkg/bucket"
	"agendasmart/pkg/routine"
	"agendasmart/pkg/snapshot"
)

var ErrBucketNotConfigured = errors.New("snapshot bucket is not configured")

// SnapshotService exports and imports the routines document, optionally through the snapshot bucket.
type SnapshotService struct {
	store   routine.Store
	objects bucket.ObjectStore
	bucket  string
	now     func() time.Time
}

// NewSnapshotService creates the service. A nil object store disables the bucket operations.
func NewSnapshotService(store routine.Store, objects bucket.ObjectStore, bucketName string) *SnapshotService {
	return &SnapshotService{
		store:   store,
		objects: objects,
		bucket:  bucketName,
		now:     time.Now,
	}
}

func (s *SnapshotService) bucketEnabled() bool {
	return s.objects != nil && s.bucket != ""
}

// Export returns the current document.
func (s *SnapshotService) Export() snapshot.Document {
	return snapshot.Export(s.store)
}

// Upload stores the current document in the bucket and returns its key.
func (s *SnapshotService) Upload(ctx context.Context) (string, error) {
	if !s.bucketEnabled() {
		return "", ErrBucketNotConfigured
	}

	key := snapshot.ObjectKey(s.now())
	if err := snapshot.Upload(ctx, s.store, s.objects, s.bucket, key); err != nil {
		return "", err
	}
	return key, nil
}

// Import applies a JSON document.
func (s *SnapshotService) Import(data []byte) (snapshot.Result, error) {
	return snapshot.Import(s.store, data)
}

// Restore applies the document stored in the bucket under key.
func (s *SnapshotService) Restore(ctx context.Context, key string) (snapshot.Result, error) {
	if !s.bucketEnabled() {
		return snapshot.Result{}, ErrBucketNotConfigured
	}
	return snapshot.Download(ctx, s.store, s.objects, s.bucket, key)
}
