package services

import (
	"context"
	"testing"
	"time"

	svcmocks "agendasmart/api/services/testutil"
	"agendasmart/internal/testutil"
	"agendasmart/pkg/routine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshotServiceUpload(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewEnv(t).Facade
	require.NoError(t, routine.Activate(store, "r1"))

	objects := svcmocks.NewMockObjectStore()
	objects.On("PutObject", ctx, "snapshots", "snapshots/20240304T080000Z-agendasmart-routines.json", "application/json").Return(nil)

	service := NewSnapshotService(store, objects, "snapshots")
	service.now = func() time.Time { return testutil.Epoch }

	key, err := service.Upload(ctx)
	require.NoError(t, err)

	assert.Equal(t, "snapshots/20240304T080000Z-agendasmart-routines.json", key)
	assert.JSONEq(t, `{"routines":[],"activeRoutineId":"r1"}`, string(objects.Uploaded[key]))
	svcmocks.VerifyAllMocks(t, objects)
}

func TestSnapshotServiceRestore(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewEnv(t).Facade

	objects := svcmocks.NewMockObjectStore()
	objects.On("GetObject", mock.Anything, "snapshots", "old.json").
		Return([]byte(`{"routines":[{"id":"r2","name":"B","days":{}}],"activeRoutineId":"r2"}`), nil)

	result, err := NewSnapshotService(store, objects, "snapshots").Restore(ctx, "old.json")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Routines)
	active, ok := routine.Active(store)
	require.True(t, ok)
	assert.Equal(t, "B", active.Name)
}

func TestSnapshotServiceWithoutBucket(t *testing.T) {
	ctx := context.Background()
	service := NewSnapshotService(testutil.NewEnv(t).Facade, nil, "")

	_, err := service.Upload(ctx)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)

	_, err = service.Restore(ctx, "old.json")
	assert.ErrorIs(t, err, ErrBucketNotConfigured)

	assert.Empty(t, service.Export().Routines)
}
