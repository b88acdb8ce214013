package testutil

import (
	"testing"
	"time"

	"agendasmart/pkg/storage"
	"agendasmart/pkg/storage/localstore"

	"github.com/stretchr/testify/require"
)

// Epoch is the starting time of the fake clocks.
var Epoch = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

// NewLocalStore opens an in-memory badger store closed with the test.
func NewLocalStore(t *testing.T) *localstore.Store {
	t.Helper()

	store, err := localstore.Open(localstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// Env is a facade wired to in-memory stores and a fake clock.
type Env struct {
	Facade *storage.Facade
	Local  *localstore.Store
	Remote *MemoryTable
	Clock  *FakeClock
}

// NewEnv builds a facade for tests. The facade is closed with the test.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		Local:  NewLocalStore(t),
		Remote: NewMemoryTable(),
		Clock:  NewFakeClock(Epoch),
	}
	env.Facade = storage.New(env.Local, env.Remote, storage.Options{Clock: env.Clock})
	t.Cleanup(env.Facade.Close)

	return env
}
