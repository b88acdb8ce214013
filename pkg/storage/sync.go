package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"agendasmart/pkg/messages"
)

// CriticalKeys are audited by Diagnose.
var CriticalKeys = []string{KeyRoutines, KeyWidgets, KeyActiveRoutineID, KeyLastVisit}

// Synchronizer reconciles the local cache with the remote table.
// There is no versioning: force and a missing local value are the only tie breakers.
type Synchronizer struct {
	f *Facade
}

// SyncFromRemote copies valid remote values into the cache.
// A value is written when forced, when the cache lacks the key, or when both sides differ.
// Returns true only when no key failed.
func (s *Synchronizer) SyncFromRemote(ctx context.Context, force bool) bool {
	ok := s.syncFromRemote(ctx, force)
	syncRuns.WithLabelValues(syncMode(force), resultLabel(ok)).Inc()
	return ok
}

func (s *Synchronizer) syncFromRemote(ctx context.Context, force bool) bool {
	f := s.f

	keys, err := f.remote.listKeys(ctx)
	if err != nil {
		return false
	}

	failures := 0
	for _, key := range keys {
		decoded, err := f.remote.fetch(ctx, key)
		if err != nil {
			failures++
			continue
		}
		if decoded.Value == nil {
			continue
		}
		if err := f.validator.Validate(decoded.Value, key); err != nil {
			f.logger.Warnf(messages.InvalidRemoteValue, key, err)
			validationRejections.WithLabelValues(keyLabel(key), "remote").Inc()
			continue
		}

		if _, err := s.adopt(key, decoded.Value, force); err != nil {
			f.logger.Errorf("couldn't sync %s: %v", key, err)
			failures++
		}
	}

	if failures > 0 {
		f.logger.Warnf("sync from remote finished with %d failed keys", failures)
	} else {
		f.logger.Infof("sync from remote finished, %d keys checked", len(keys))
	}

	return failures == 0
}

// ForceSync walks the union of local and remote keys.
// Valid remote values overwrite the cache; keys only the cache holds are uploaded.
func (s *Synchronizer) ForceSync(ctx context.Context) bool {
	ok := s.forceSync(ctx)
	syncRuns.WithLabelValues("full", resultLabel(ok)).Inc()
	return ok
}

func (s *Synchronizer) forceSync(ctx context.Context) bool {
	f := s.f

	remoteKeys, err := f.remote.listKeys(ctx)
	if err != nil {
		return false
	}
	localKeys, err := f.slots.keys()
	if err != nil {
		f.logger.Errorf("couldn't list local keys: %v", err)
		return false
	}

	failures := 0
	for _, key := range union(localKeys, remoteKeys) {
		decoded, err := f.remote.fetch(ctx, key)
		if err != nil {
			failures++
			continue
		}

		if decoded.Value != nil {
			if err := f.validator.Validate(decoded.Value, key); err == nil {
				if _, err := s.adopt(key, decoded.Value, true); err != nil {
					f.logger.Errorf("couldn't sync %s: %v", key, err)
					failures++
				}
				continue
			}
			validationRejections.WithLabelValues(keyLabel(key), "remote").Inc()
		}

		if !s.upload(ctx, key) {
			failures++
		}
	}

	return failures == 0
}

// upload pushes the cached value of key. Keys with nothing usable locally are skipped.
func (s *Synchronizer) upload(ctx context.Context, key string) bool {
	f := s.f

	f.localMu.Lock()
	value, state := f.slots.read(key)
	f.localMu.Unlock()

	if state != stateValid || f.validator.Validate(value, key) != nil {
		return true
	}

	raw, err := json.Marshal(value)
	if err != nil {
		f.logger.Errorf(messages.SerializationFailed, key, err)
		return false
	}

	return f.remote.upsertRaw(ctx, key, string(raw)) == nil
}

// adopt writes a remote value into the cache unless it already holds an equal one.
func (s *Synchronizer) adopt(key string, value any, force bool) (bool, error) {
	f := s.f

	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("serialize: %w", err)
	}

	f.localMu.Lock()
	defer f.localMu.Unlock()

	local, state := f.slots.read(key)
	if !force && state == stateValid && reflect.DeepEqual(local, value) {
		return false, nil
	}

	if err := f.slots.write(key, raw); err != nil {
		return false, err
	}

	// The remote side is now the reference, a pending retry would overwrite it with older data.
	f.mu.Lock()
	f.supersede(key)
	delete(f.latest, key)
	f.mu.Unlock()

	return true, nil
}

// Diagnose compares the critical keys on both sides without changing anything.
func (s *Synchronizer) Diagnose(ctx context.Context) []string {
	f := s.f
	issues := []string{}

	if !f.remote.Enabled() {
		issues = append(issues, "remote store is not configured")
	}

	for _, key := range CriticalKeys {
		f.localMu.Lock()
		local, state := f.slots.read(key)
		f.localMu.Unlock()

		switch state {
		case stateAbsent:
			issues = append(issues, fmt.Sprintf("%s: missing locally", key))
		case stateCorrupted:
			issues = append(issues, fmt.Sprintf("%s: local value is unreadable", key))
		default:
			if err := f.validator.Validate(local, key); err != nil {
				issues = append(issues, fmt.Sprintf("%s: local value is invalid (%v)", key, err))
			}
		}

		if !f.remote.Enabled() {
			continue
		}

		decoded, err := f.remote.fetch(ctx, key)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: remote store unreachable (%v)", key, err))
			continue
		}

		switch decoded.Kind {
		case Absent:
			issues = append(issues, fmt.Sprintf("%s: missing remotely", key))
			continue
		case Unrecoverable:
			issues = append(issues, fmt.Sprintf("%s: remote payload is unrecoverable", key))
			continue
		case Repaired:
			issues = append(issues, fmt.Sprintf("%s: remote payload needed repair (%s)", key, decoded.Rule))
		}

		if err := f.validator.Validate(decoded.Value, key); err != nil {
			issues = append(issues, fmt.Sprintf("%s: remote value is invalid (%v)", key, err))
			continue
		}

		if state == stateValid && !reflect.DeepEqual(local, decoded.Value) {
			issues = append(issues, fmt.Sprintf("%s: local and remote values differ", key))
		}
	}

	return issues
}

func syncMode(force bool) string {
	if force {
		return "forced"
	}
	return "incremental"
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, k := range list {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
