package remotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *mockRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	args := m.Called(ctx, cursor, match, count)
	return args.Get(0).(*redis.ScanCmd)
}

func TestRedisUpsertAndSelect(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	table := NewRedisTable(client, "")

	client.On("Set", ctx, "kv:agendasmart:routines", "[]", time.Duration(0)).
		Return(redis.NewStatusResult("OK", nil)).Once()
	client.On("Get", ctx, "kv:agendasmart:routines").
		Return(redis.NewStringResult("[]", nil)).Once()
	client.On("Get", ctx, "kv:agendasmart:widgets").
		Return(redis.NewStringResult("", redis.Nil)).Once()

	require.NoError(t, table.Upsert(ctx, "agendasmart:routines", "[]"))

	value, found, err := table.Select(ctx, "agendasmart:routines")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)

	_, found, err = table.Select(ctx, "agendasmart:widgets")
	require.NoError(t, err)
	assert.False(t, found)

	client.AssertExpectations(t)
}

func TestRedisErrors(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	table := NewRedisTable(client, "kv")

	client.On("Get", ctx, "kv:agendasmart:routines").
		Return(redis.NewStringResult("", errors.New("connection refused"))).Once()
	client.On("Del", ctx, []string{"kv:agendasmart:routines"}).
		Return(redis.NewIntResult(0, errors.New("connection refused"))).Once()

	_, _, err := table.Select(ctx, "agendasmart:routines")
	assert.ErrorContains(t, err, "connection refused")

	err = table.Delete(ctx, "agendasmart:routines")
	assert.ErrorContains(t, err, "connection refused")

	client.AssertExpectations(t)
}

func TestRedisKeysScansAllPages(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	table := NewRedisTable(client, "kv")

	client.On("Scan", ctx, uint64(0), "kv:agendasmart:*", int64(scanBatch)).
		Return(redis.NewScanCmdResult([]string{"kv:agendasmart:routines", "kv:agendasmart:widgets"}, 7, nil)).Once()
	client.On("Scan", ctx, uint64(7), "kv:agendasmart:*", int64(scanBatch)).
		Return(redis.NewScanCmdResult([]string{"kv:agendasmart:widgets", "kv:agendasmart:lastVisit"}, 0, nil)).Once()

	keys, err := table.Keys(ctx, "agendasmart:")
	require.NoError(t, err)
	assert.Equal(t, []string{"agendasmart:routines", "agendasmart:widgets", "agendasmart:lastVisit"}, keys)

	client.AssertExpectations(t)
}

func TestEscapes(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\`, escapeLike(`a_b%c\`))
	assert.Equal(t, `kv:a\*b\?\[c\]`, escapeGlob(`kv:a*b?[c]`))
}
