package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"agendasmart/pkg/bucket"
)

// Logger that we will use to save our logs.
// Every line is written to a temporary file that can be shipped to a bucket, and mirrored to an optional writer.
type NewLogger struct {
	mu       sync.Mutex
	logFile  *os.File
	filePath string
	mirror   io.Writer
}

// Create the log instance with a temporary file.
func CreateLogger() (*NewLogger, error) {
	f, err := os.CreateTemp("", "agendasmart-*.log")
	if err != nil {
		return nil, err
	}

	return &NewLogger{
		logFile:  f,
		filePath: f.Name(),
	}, nil
}

// CreateConsoleLogger creates a logger that also writes every line to stderr.
func CreateConsoleLogger() (*NewLogger, error) {
	l, err := CreateLogger()
	if err != nil {
		return nil, err
	}
	l.mirror = os.Stderr
	return l, nil
}

// Path of the current log file.
func (l *NewLogger) Path() string {
	return l.filePath
}

// Log a simple info.
func (l *NewLogger) Infof(format string, args ...interface{}) {
	l.write("[INFO]", format, args...)
}

// Log a warning.
func (l *NewLogger) Warnf(format string, args ...interface{}) {
	l.write("[WARN]", format, args...)
}

// Log a error.
func (l *NewLogger) Errorf(format string, args ...interface{}) {
	l.write("[ERROR]", format, args...)
}

// Write a empty line.
func (l *NewLogger) EmptyLine() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logFile.WriteString("\n")
}

// Write something to the logger.
func (l *NewLogger) write(infoType string, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("%-8s %s %s\n", infoType, timestamp, fmt.Sprintf(format, args...))

	l.logFile.WriteString(line)
	if l.mirror != nil {
		io.WriteString(l.mirror, line)
	}
}

// Clean the file contents.
func (l *NewLogger) CleanFile() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanFile()
}

func (l *NewLogger) cleanFile() {
	l.logFile.Truncate(0)

	l.logFile.Seek(0, 0)
}

// Upload the log to a s3 bucket.
// The file is cleaned after a successful upload.
func (l *NewLogger) UploadToS3Bucket(ctx context.Context, store bucket.ObjectStore, bucketName, objectKey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.logFile.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind file: %v", err)
	}

	if err := store.PutObject(ctx, bucketName, objectKey, l.logFile, "text/plain"); err != nil {
		// Keep appending after the failed attempt.
		l.logFile.Seek(0, io.SeekEnd)
		return err
	}

	// Clean the file after sending.
	l.cleanFile()

	return nil
}

// Close the log file and remove it from disk.
func (l *NewLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.logFile.Close(); err != nil {
		return err
	}
	return os.Remove(l.filePath)
}
