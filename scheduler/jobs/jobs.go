package jobs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"agendasmart/pkg/bucket"
	"agendasmart/pkg/routine"
	"agendasmart/pkg/snapshot"
	"agendasmart/pkg/storage"
)

// jobTimeout bounds every remote call of a job run.
const jobTimeout = 30 * time.Second

// Syncer pulls the remote table through the running service.
type Syncer interface {
	Sync(ctx context.Context, force bool) (bool, error)
}

// SyncRemote runs an incremental sync.
func SyncRemote(syncer Syncer, logger storage.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Infof("Starting remote sync")
	ok, err := syncer.Sync(ctx, false)
	if err != nil {
		logger.Errorf("Remote sync failed: %v", err)
		return fmt.Errorf("remote sync: %w", err)
	}
	if !ok {
		logger.Warnf("Remote sync finished with failed keys")
		return nil
	}

	logger.Infof("Remote sync completed successfully")
	return nil
}

// Notifier delivers a due notification.
type Notifier interface {
	Notify(n routine.Notification) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	Logger storage.Logger
}

func (l LogNotifier) Notify(n routine.Notification) error {
	l.Logger.Infof("[NOTIFY] %s (%s at %s)", n.Message, n.Boundary, n.At.Format("15:04"))
	return nil
}

// NotifyDue delivers the notifications due at now.
func NotifyDue(store routine.Store, notifier Notifier, now func() time.Time, logger storage.Logger) error {
	due := routine.DueNotifications(store, now())

	failed := 0
	for _, n := range due {
		if err := notifier.Notify(n); err != nil {
			logger.Errorf("Couldn't deliver notification %s: %v", n.ID, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d notifications failed", failed, len(due))
	}
	return nil
}

// LogUploader is the log file of the scheduler.
type LogUploader interface {
	UploadToS3Bucket(ctx context.Context, store bucket.ObjectStore, bucketName, objectKey string) error
}

// UploadLogs ships the log file to the log bucket.
func UploadLogs(logs LogUploader, objects bucket.ObjectStore, bucketName string, now func() time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	key := fmt.Sprintf("scheduler/%s.log", now().UTC().Format("2006-01-02T15-04-05"))
	if err := logs.UploadToS3Bucket(ctx, objects, bucketName, key); err != nil {
		return fmt.Errorf("upload logs: %w", err)
	}
	return nil
}

// Exporter returns the routines document.
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// SnapshotRoutines stores a snapshot of the routines document in the snapshot bucket.
func SnapshotRoutines(exporter Exporter, objects bucket.ObjectStore, bucketName string, now func() time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	doc, err := exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("export routines: %w", err)
	}

	key := snapshot.ObjectKey(now())
	if err := objects.PutObject(ctx, bucketName, key, bytes.NewReader(doc), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}
