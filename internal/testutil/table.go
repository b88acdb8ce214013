package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrUnavailable is returned by a failing MemoryTable.
var ErrUnavailable = errors.New("remote table unavailable")

// MemoryTable is an in-memory remote table with failure injection.
type MemoryTable struct {
	mu   sync.Mutex
	rows map[string]string

	// failures left for each operation, -1 fails forever.
	failures map[string]int
	calls    map[string]int
}

// NewMemoryTable creates an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		rows:     map[string]string{},
		failures: map[string]int{},
		calls:    map[string]int{},
	}
}

// FailNext makes the next n calls of operation fail. Operations are upsert, select, delete and keys.
func (m *MemoryTable) FailNext(operation string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[operation] = n
}

// Calls returns how many times operation was called.
func (m *MemoryTable) Calls(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[operation]
}

// Put stores a raw row, bypassing failures.
func (m *MemoryTable) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = value
}

// Row returns a raw row.
func (m *MemoryTable) Row(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[key]
	return v, ok
}

func (m *MemoryTable) fail(operation string) bool {
	m.calls[operation]++
	left := m.failures[operation]
	if left == 0 {
		return false
	}
	if left > 0 {
		m.failures[operation] = left - 1
	}
	return true
}

func (m *MemoryTable) Upsert(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail("upsert") {
		return ErrUnavailable
	}
	m.rows[key] = value
	return nil
}

func (m *MemoryTable) Select(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail("select") {
		return "", false, ErrUnavailable
	}
	v, ok := m.rows[key]
	return v, ok, nil
}

func (m *MemoryTable) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail("delete") {
		return ErrUnavailable
	}
	delete(m.rows, key)
	return nil
}

func (m *MemoryTable) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail("keys") {
		return nil, ErrUnavailable
	}
	keys := []string{}
	for k := range m.rows {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
