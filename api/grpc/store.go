package grpcserver

import (
	"context"
	"encoding/json"
	"time"

	"agendasmart/pkg/storage"
)

// ValueClient reads and writes single values, Client is one.
type ValueClient interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
}

// RemoteStore adapts a client to the synchronous key/value API of the facade.
// Failures are logged and become nil or false.
type RemoteStore struct {
	client  ValueClient
	timeout time.Duration
	logger  storage.Logger
}

// NewRemoteStore returns the adapter, every call is bounded by timeout.
func NewRemoteStore(client ValueClient, timeout time.Duration, logger storage.Logger) *RemoteStore {
	if logger == nil {
		logger = storage.NopLogger()
	}
	return &RemoteStore{client: client, timeout: timeout, logger: logger}
}

// AsStore returns the adapter over c.
func (c *Client) AsStore(timeout time.Duration, logger storage.Logger) *RemoteStore {
	return NewRemoteStore(c, timeout, logger)
}

func (s *RemoteStore) GetItem(key string) any {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key)
	if err != nil {
		s.logger.Warnf("couldn't get %s: %v", key, err)
		return nil
	}
	return value
}

func (s *RemoteStore) GetInto(key string, dst any) bool {
	value := s.GetItem(key)
	if value == nil {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *RemoteStore) SetItem(key string, value any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value); err != nil {
		s.logger.Warnf("couldn't set %s: %v", key, err)
		return false
	}
	return true
}
