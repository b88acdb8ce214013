// Package storage keeps the application state in a local key/value store and mirrors it to a
// remote key/value table.
//
// The local store is the source of truth for reads. Remote work is dispatched in the background and
// never awaited by GetItem or SetItem callers. Every failure stops at this package's boundary: callers
// only ever observe nil values or false results.
package storage

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultPrefix namespaces every physical key of the application.
	DefaultPrefix = "agendasmart:"

	// backupPrefix is prepended to the namespaced key of a backup record.
	backupPrefix = "backup:"

	DefaultBackupTTL  = 7 * 24 * time.Hour
	DefaultRetryDelay = 2 * time.Second
)

// LocalStore is the synchronous physical storage of the cache.
// Implementations must be safe for concurrent use.
type LocalStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}

// RemoteTable is the raw remote key/value table.
// Keys are namespaced, values are the text stored in the value column.
type RemoteTable interface {
	Upsert(ctx context.Context, key string, value string) error
	Select(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Logger used by the storage layer.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NopLogger discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

// namespace maps logical keys to physical keys.
type namespace string

func (n namespace) key(logical string) string {
	return string(n) + logical
}

func (n namespace) backupKey(logical string) string {
	return backupPrefix + string(n) + logical
}

// logical strips the prefix, returning false for keys outside of the namespace.
func (n namespace) logical(physical string) (string, bool) {
	if !strings.HasPrefix(physical, string(n)) {
		return "", false
	}
	return strings.TrimPrefix(physical, string(n)), true
}
