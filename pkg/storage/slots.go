package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"agendasmart/pkg/messages"
)

// BackupRecord holds the value a key had before its latest local write.
type BackupRecord struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Time of the snapshot.
func (r BackupRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

type readState int

const (
	stateAbsent readState = iota
	stateValid
	stateCorrupted
)

// slots is the two slot layout of every key: the current value and the previous one with a timestamp.
type slots struct {
	local  LocalStore
	ns     namespace
	ttl    time.Duration
	clock  Clock
	logger Logger
}

// read decodes the current slot of a key.
// Physical read errors are reported as corruption, the caller can't tell them apart anyway.
func (s *slots) read(key string) (any, readState) {
	raw, found, err := s.local.Get(s.ns.key(key))
	if err != nil {
		s.logger.Errorf(messages.CorruptedEntry, key, err)
		return nil, stateCorrupted
	}
	if !found {
		return nil, stateAbsent
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Errorf(messages.CorruptedEntry, key, err)
		return nil, stateCorrupted
	}

	return value, stateValid
}

// write stores raw as the current slot, moving the readable previous value to the backup slot first.
func (s *slots) write(key string, raw []byte) error {
	previous, found, err := s.local.Get(s.ns.key(key))
	if err == nil && found && json.Valid(previous) {
		if err := s.snapshot(key, previous); err != nil {
			s.logger.Warnf("couldn't back up %s: %v", key, err)
		}
	}

	if err := s.local.Set(s.ns.key(key), raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (s *slots) snapshot(key string, previous []byte) error {
	record, err := json.Marshal(BackupRecord{
		Timestamp: s.clock.Now().UnixMilli(),
		Data:      previous,
	})
	if err != nil {
		return err
	}

	return s.local.Set(s.ns.backupKey(key), record)
}

// backup returns the backup slot of a key, without checking its age.
func (s *slots) backup(key string) (BackupRecord, bool) {
	raw, found, err := s.local.Get(s.ns.backupKey(key))
	if err != nil || !found {
		return BackupRecord{}, false
	}

	var record BackupRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return BackupRecord{}, false
	}

	return record, true
}

// restore copies a fresh backup back into the current slot.
// Expired or unreadable backups are discarded.
func (s *slots) restore(key string) (any, bool) {
	record, found := s.backup(key)
	if !found {
		// Drop whatever unreadable bytes are in there.
		s.local.Delete(s.ns.backupKey(key))
		return nil, false
	}

	if expiresAt := record.Time().Add(s.ttl); s.clock.Now().After(expiresAt) {
		s.logger.Infof(messages.BackupExpired, key, expiresAt.Format(time.RFC3339))
		s.local.Delete(s.ns.backupKey(key))
		return nil, false
	}

	var value any
	if err := json.Unmarshal(record.Data, &value); err != nil {
		s.local.Delete(s.ns.backupKey(key))
		return nil, false
	}

	if err := s.local.Set(s.ns.key(key), record.Data); err != nil {
		s.logger.Errorf("couldn't restore %s from backup: %v", key, err)
		return nil, false
	}

	s.logger.Infof("restored %s from backup taken at %s", key, record.Time().Format(time.RFC3339))
	return value, true
}

// remove deletes both slots of a key.
func (s *slots) remove(key string) error {
	if err := s.local.Delete(s.ns.key(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if err := s.local.Delete(s.ns.backupKey(key)); err != nil {
		return fmt.Errorf("delete backup of %s: %w", key, err)
	}
	return nil
}

// keys lists the logical keys with a current slot.
func (s *slots) keys() ([]string, error) {
	physical, err := s.local.Keys(string(s.ns))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(physical))
	for _, k := range physical {
		if logical, ok := s.ns.logical(k); ok && logical != "" {
			keys = append(keys, logical)
		}
	}
	sort.Strings(keys)

	return keys, nil
}
