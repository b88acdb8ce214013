package logger

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string]string
	err     error
}

func (m *memoryStore) PutObject(ctx context.Context, bucketName, key string, body io.Reader, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[bucketName+"/"+key] = string(data)
	return nil
}

func (m *memoryStore) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	return []byte(m.objects[bucketName+"/"+key]), nil
}

func readLog(t *testing.T, l *NewLogger) string {
	t.Helper()
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	return string(data)
}

func TestLoggerWrite(t *testing.T) {
	l, err := CreateLogger()
	require.NoError(t, err)
	defer l.Close()

	l.Infof("stored %s", "routines")
	l.Warnf("retrying %s", "widgets")
	l.Errorf("failed %d", 2)

	content := readLog(t, l)
	assert.Contains(t, content, "[INFO]")
	assert.Contains(t, content, "stored routines")
	assert.Contains(t, content, "[WARN]")
	assert.Contains(t, content, "[ERROR]")
	assert.Contains(t, content, "failed 2")
}

func TestLoggerUpload(t *testing.T) {
	l, err := CreateLogger()
	require.NoError(t, err)
	defer l.Close()

	store := &memoryStore{objects: map[string]string{}}
	l.Infof("sync finished")

	require.NoError(t, l.UploadToS3Bucket(context.Background(), store, "logs", "run.log"))
	assert.Contains(t, store.objects["logs/run.log"], "sync finished")

	// Uploaded lines are gone from the file.
	assert.Empty(t, readLog(t, l))
}

func TestLoggerUploadFailureKeepsLines(t *testing.T) {
	l, err := CreateLogger()
	require.NoError(t, err)
	defer l.Close()

	store := &memoryStore{objects: map[string]string{}, err: errors.New("bucket down")}
	l.Infof("first")

	assert.Error(t, l.UploadToS3Bucket(context.Background(), store, "logs", "run.log"))
	l.Infof("second")

	content := readLog(t, l)
	assert.Contains(t, content, "first")
	assert.Contains(t, content, "second")
}
