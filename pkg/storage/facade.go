package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"agendasmart/pkg/messages"

	"github.com/google/uuid"
)

// Options of the facade. Zero values fall back to the defaults.
type Options struct {
	Prefix        string
	BackupTTL     time.Duration
	Retry         RetryPolicy
	RemoteTimeout time.Duration
	Clock         Clock
	Logger        Logger
	Validator     *Validator
}

// Facade is the key/value API used by every consumer of the application state.
// It is safe for concurrent use.
type Facade struct {
	slots     *slots
	remote    *RemoteClient
	validator *Validator
	logger    Logger
	clock     Clock
	retry     RetryPolicy
	sync      *Synchronizer

	ctx    context.Context
	cancel context.CancelFunc

	// localMu makes read-then-write sequences on the local store atomic.
	localMu sync.Mutex

	mu         sync.Mutex
	idle       *sync.Cond
	inflight   int
	closed     bool
	latest     map[string]uuid.UUID
	pending    map[string]*pendingRetry
	refreshing map[string]struct{}
}

// New creates the facade over a local store and an optional remote table.
func New(local LocalStore, table RemoteTable, opts Options) *Facade {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.BackupTTL <= 0 {
		opts.BackupTTL = DefaultBackupTTL
	}
	if opts.Retry.Delay <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger()
	}
	if opts.Validator == nil {
		opts.Validator = defaultValidator
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Facade{
		slots: &slots{
			local:  local,
			ns:     namespace(opts.Prefix),
			ttl:    opts.BackupTTL,
			clock:  opts.Clock,
			logger: opts.Logger,
		},
		remote:     NewRemoteClient(table, opts.Prefix, opts.RemoteTimeout, opts.Logger),
		validator:  opts.Validator,
		logger:     opts.Logger,
		clock:      opts.Clock,
		retry:      opts.Retry,
		ctx:        ctx,
		cancel:     cancel,
		latest:     make(map[string]uuid.UUID),
		pending:    make(map[string]*pendingRetry),
		refreshing: make(map[string]struct{}),
	}
	f.idle = sync.NewCond(&f.mu)
	f.sync = &Synchronizer{f: f}

	return f
}

// Remote exposes the remote client.
func (f *Facade) Remote() *RemoteClient {
	return f.remote
}

// Synchronizer exposes the bulk reconciliation operations.
func (f *Facade) Synchronizer() *Synchronizer {
	return f.sync
}

// GetItem returns the cached value of key, or nil.
// When the cache has nothing usable, the remote value is fetched in the background for the next read.
func (f *Facade) GetItem(key string) any {
	value, state := f.readLocal(key)
	if state == stateValid {
		return value
	}

	f.refresh(key)
	return nil
}

func (f *Facade) readLocal(key string) (any, readState) {
	f.localMu.Lock()
	defer f.localMu.Unlock()

	value, state := f.slots.read(key)
	if state != stateCorrupted {
		return value, state
	}

	if restored, ok := f.slots.restore(key); ok {
		return restored, stateValid
	}

	return nil, stateCorrupted
}

// GetInto decodes the cached value of key into dst.
func (f *Facade) GetInto(key string, dst any) bool {
	value := f.GetItem(key)
	if value == nil {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		f.logger.Warnf("couldn't decode %s into %T: %v", key, dst, err)
		return false
	}

	return true
}

// SetItem validates and stores value, then mirrors it to the remote table in the background.
// The result only reflects the local write.
func (f *Facade) SetItem(key string, value any) bool {
	if err := f.validator.Validate(value, key); err != nil {
		f.logger.Warnf(messages.InvalidValue, key, err)
		validationRejections.WithLabelValues(keyLabel(key), "caller").Inc()
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		f.logger.Errorf(messages.SerializationFailed, key, err)
		return false
	}

	f.localMu.Lock()
	err = f.slots.write(key, raw)
	f.localMu.Unlock()
	if err != nil {
		f.logger.Errorf("couldn't store %s locally: %v", key, err)
		return false
	}

	f.mirror(newWriteIntent(key, raw))
	return true
}

// RemoveItem deletes the entry and its backup, and the remote row when alsoRemote is set.
func (f *Facade) RemoveItem(key string, alsoRemote bool) bool {
	f.mu.Lock()
	f.supersede(key)
	delete(f.latest, key)
	f.mu.Unlock()

	f.localMu.Lock()
	err := f.slots.remove(key)
	f.localMu.Unlock()
	if err != nil {
		f.logger.Errorf("couldn't remove %s: %v", key, err)
	}

	if alsoRemote && f.remote.Enabled() {
		f.mu.Lock()
		f.spawn(func() {
			f.remote.Delete(f.ctx, key)
		})
		f.mu.Unlock()
	}

	return err == nil
}

// Keys lists the logical keys held by the local store.
func (f *Facade) Keys() []string {
	keys, err := f.slots.keys()
	if err != nil {
		f.logger.Errorf("couldn't list local keys: %v", err)
		return []string{}
	}
	return keys
}

// SyncFromRemote pulls the remote table into the cache. See Synchronizer.SyncFromRemote.
func (f *Facade) SyncFromRemote(ctx context.Context, force bool) bool {
	return f.sync.SyncFromRemote(ctx, force)
}

// ForceSync reconciles every key known to either side. See Synchronizer.ForceSync.
func (f *Facade) ForceSync(ctx context.Context) bool {
	return f.sync.ForceSync(ctx)
}

// DiagnoseData reports the state of the critical keys. See Synchronizer.Diagnose.
func (f *Facade) DiagnoseData(ctx context.Context) []string {
	return f.sync.Diagnose(ctx)
}

// Backup returns the backup record of key.
func (f *Facade) Backup(key string) (BackupRecord, bool) {
	f.localMu.Lock()
	defer f.localMu.Unlock()

	return f.slots.backup(key)
}

// Wait blocks until the background remote work in flight has finished.
// Retries still waiting on their timer are not waited for.
func (f *Facade) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.inflight > 0 {
		f.idle.Wait()
	}
}

// Close drops the pending retries and waits for the work in flight.
func (f *Facade) Close() {
	f.mu.Lock()
	f.closed = true
	for key := range f.pending {
		f.supersede(key)
	}
	f.mu.Unlock()

	f.Wait()
	f.cancel()
}

// refresh fetches key from the remote table in the background, once at a time per key.
func (f *Facade) refresh(key string) {
	if !f.remote.Enabled() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.refreshing[key]; busy {
		return
	}
	if f.spawn(func() { f.refreshFromRemote(key) }) {
		f.refreshing[key] = struct{}{}
	}
}

func (f *Facade) refreshFromRemote(key string) {
	defer func() {
		f.mu.Lock()
		delete(f.refreshing, key)
		f.mu.Unlock()
	}()

	decoded, err := f.remote.fetch(f.ctx, key)
	if err != nil || decoded.Value == nil {
		return
	}

	if err := f.validator.Validate(decoded.Value, key); err != nil {
		f.logger.Warnf(messages.InvalidRemoteValue, key, err)
		validationRejections.WithLabelValues(keyLabel(key), "remote").Inc()
		return
	}

	raw, err := json.Marshal(decoded.Value)
	if err != nil {
		f.logger.Errorf(messages.SerializationFailed, key, err)
		return
	}

	f.localMu.Lock()
	defer f.localMu.Unlock()

	// A local write that happened meanwhile wins.
	if _, state := f.slots.read(key); state == stateValid {
		return
	}
	if err := f.slots.write(key, raw); err != nil {
		f.logger.Errorf("couldn't cache remote %s: %v", key, err)
	}
}

// mirror sends a local write to the remote table in the background.
func (f *Facade) mirror(intent WriteIntent) {
	if !f.remote.Enabled() {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.supersede(intent.Key)
	f.latest[intent.Key] = intent.ID
	f.spawn(func() { f.push(intent) })
}

func (f *Facade) push(intent WriteIntent) {
	err := f.remote.upsertRaw(f.ctx, intent.Key, intent.Raw)
	if err == nil {
		if intent.Attempt > 0 {
			writeRetries.WithLabelValues("success").Inc()
		}
		return
	}

	next, ok := f.retry.Next(intent)
	if !ok {
		f.logger.Warnf(messages.RemoteRetryGaveUp, intent.Key, err)
		writeRetries.WithLabelValues("gave_up").Inc()
		return
	}

	f.scheduleRetry(next)
}

func (f *Facade) scheduleRetry(intent WriteIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// A newer write or a removal made this intent stale.
	if f.closed || f.latest[intent.Key] != intent.ID {
		return
	}

	f.logger.Infof("remote upsert for %s failed, retrying in %s", intent.Key, f.retry.Delay)
	f.pending[intent.Key] = &pendingRetry{
		id:    intent.ID,
		timer: f.clock.AfterFunc(f.retry.Delay, func() { f.fireRetry(intent) }),
	}
}

func (f *Facade) fireRetry(intent WriteIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, exists := f.pending[intent.Key]
	if !exists || p.id != intent.ID {
		return
	}
	delete(f.pending, intent.Key)

	f.spawn(func() { f.push(intent) })
}

// supersede stops the pending retry of key. Must be called with mu held.
func (f *Facade) supersede(key string) {
	if p, exists := f.pending[key]; exists {
		p.timer.Stop()
		delete(f.pending, key)
	}
}

// spawn runs fn in a tracked goroutine. Must be called with mu held.
func (f *Facade) spawn(fn func()) bool {
	if f.closed {
		return false
	}

	f.inflight++
	go func() {
		defer func() {
			f.mu.Lock()
			f.inflight--
			if f.inflight == 0 {
				f.idle.Broadcast()
			}
			f.mu.Unlock()
		}()
		fn()
	}()

	return true
}

func keyLabel(key string) string {
	switch key {
	case KeyRoutines, KeyWidgets, KeyActiveRoutineID, KeyLastVisit:
		return key
	}
	return "other"
}
