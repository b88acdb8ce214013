package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("REMOTE_BACKEND", "none")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "agendasmart:", cfg.Storage.Prefix)
	assert.Equal(t, 7*24*time.Hour, cfg.Storage.BackupTTL)
	assert.Equal(t, 2*time.Second, cfg.Storage.RetryDelay)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "localhost:50051", cfg.Server.GRPCTarget)
	assert.False(t, cfg.Bucket.Enabled())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown backend",
			env:  map[string]string{"REMOTE_BACKEND": "dynamo"},
		},
		{
			name: "postgres without dsn",
			env:  map[string]string{"REMOTE_BACKEND": "postgres", "POSTGRES_DSN": ""},
		},
		{
			name: "bad duration",
			env:  map[string]string{"REMOTE_BACKEND": "none", "STORAGE_RETRY_DELAY": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Parse()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestBucketEnabled(t *testing.T) {
	b := BucketConfiguration{Endpoint: "http://minio:9000", AccessKey: "key", AccessSecret: "secret"}
	assert.True(t, b.Enabled())

	b.AccessSecret = ""
	assert.False(t, b.Enabled())
}
