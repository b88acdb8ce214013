package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestStoreOperations(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Get("agendasmart:routines")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("agendasmart:routines", []byte(`[]`)))
	require.NoError(t, s.Set("agendasmart:widgets", []byte(`[{"id":"w_1"}]`)))
	require.NoError(t, s.Set("backup:agendasmart:routines", []byte(`{"timestamp":1,"data":[]}`)))
	require.NoError(t, s.Set("other:theme", []byte(`"dark"`)))

	value, found, err := s.Get("agendasmart:widgets")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"w_1"}]`, string(value))

	keys, err := s.Keys("agendasmart:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"agendasmart:routines", "agendasmart:widgets"}, keys)

	require.NoError(t, s.Delete("agendasmart:widgets"))
	require.NoError(t, s.Delete("agendasmart:never-set"))

	_, found, err = s.Get("agendasmart:widgets")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStorePersists(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set("agendasmart:activeRoutineId", []byte(`"r_1"`)))
	require.NoError(t, s.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get("agendasmart:activeRoutineId")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"r_1"`, string(value))
}
